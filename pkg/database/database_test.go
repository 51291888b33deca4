package database

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "secret", Name: "timetable", SSLMode: "require"})
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=timetable sslmode=require application_name=sma-timetable-api connect_timeout=5", dsn)
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: `it's a\pass`, Name: "timetable"})
	assert.Contains(t, dsn, `password='it\'s a\\pass'`)
	assert.NotContains(t, dsn, "sslmode=")
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}
