package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func electiveCatalog(schoolID string) []models.Subject {
	return append(coreCatalog(schoolID),
		models.Subject{ID: "bio-id", SchoolID: schoolID, Code: "BIO"},
		models.Subject{ID: "chem-id", SchoolID: schoolID, Code: "CHEM"},
		models.Subject{ID: "geo-id", SchoolID: schoolID, Code: "GEO"},
		models.Subject{ID: "foreign-id", SchoolID: "school-2", Code: "HIS"},
	)
}

func TestScopeResolverCore(t *testing.T) {
	resolver := newSubjectScopeResolver(subjectStoreStub{subjects: coreCatalog("school-1")}, &classSubjectStoreStub{})

	subjects, err := resolver.Resolve(context.Background(), nil, "school-1", dto.ScopeConfig{Mode: dto.ScopeCore}, seniorClasses("class-a", "class-b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"eng-id", "kis-id", "mat-id", "csl-id"}, subjects["class-a"])
	assert.Equal(t, subjects["class-a"], subjects["class-b"])
}

func TestScopeResolverCoreReportsMissingCodes(t *testing.T) {
	catalog := coreCatalog("school-1")[:2]
	resolver := newSubjectScopeResolver(subjectStoreStub{subjects: catalog}, &classSubjectStoreStub{})

	_, err := resolver.Resolve(context.Background(), nil, "school-1", dto.ScopeConfig{Mode: dto.ScopeCore}, seniorClasses("class-a"))
	appErr := requireAppErrorCode(t, err, appErrors.ErrMissingSubjects.Code)
	assert.Equal(t, map[string][]string{"missing_codes": {"MAT", "CSL"}}, appErr.Details)
}

func TestScopeResolverFullPersistsMappings(t *testing.T) {
	classSubjects := &classSubjectStoreStub{}
	resolver := newSubjectScopeResolver(subjectStoreStub{subjects: electiveCatalog("school-1")}, classSubjects)

	scope := dto.ScopeConfig{Mode: dto.ScopeFull, ElectiveSubjectIDs: []string{"bio-id", "chem-id", "geo-id"}}
	subjects, err := resolver.Resolve(context.Background(), nil, "school-1", scope, seniorClasses("class-a", "class-b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"eng-id", "kis-id", "mat-id", "csl-id", "bio-id", "chem-id", "geo-id"}, subjects["class-b"])
	assert.Len(t, classSubjects.upserted, 14)
	assert.Equal(t, models.ClassSubject{ClassID: "class-a", SubjectID: "eng-id"}, classSubjects.upserted[0])
}

func TestScopeResolverFullValidatesElectives(t *testing.T) {
	resolver := newSubjectScopeResolver(subjectStoreStub{subjects: electiveCatalog("school-1")}, &classSubjectStoreStub{})
	cases := map[string][]string{
		"too few":       {"bio-id", "chem-id"},
		"too many":      {"bio-id", "chem-id", "geo-id", "eng-id"},
		"duplicate":     {"bio-id", "bio-id", "geo-id"},
		"other school":  {"bio-id", "chem-id", "foreign-id"},
		"unknown topic": {"bio-id", "chem-id", "art-id"},
	}
	for name, electives := range cases {
		t.Run(name, func(t *testing.T) {
			scope := dto.ScopeConfig{Mode: dto.ScopeFull, ElectiveSubjectIDs: electives}
			_, err := resolver.Resolve(context.Background(), nil, "school-1", scope, seniorClasses("class-a"))
			requireAppErrorCode(t, err, appErrors.ErrValidation.Code)
		})
	}
}

func TestScopeResolverAssigned(t *testing.T) {
	classSubjects := &classSubjectStoreStub{mappings: []models.ClassSubject{
		{ClassID: "class-a", SubjectID: "mat-id"},
		{ClassID: "class-a", SubjectID: "bio-id"},
		{ClassID: "class-a", SubjectID: "mat-id"},
		{ClassID: "class-z", SubjectID: "eng-id"},
	}}
	resolver := newSubjectScopeResolver(subjectStoreStub{}, classSubjects)

	subjects, err := resolver.Resolve(context.Background(), nil, "school-1", dto.ScopeConfig{Mode: dto.ScopeAssigned}, seniorClasses("class-a", "class-b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"mat-id", "bio-id"}, subjects["class-a"])
	assert.Empty(t, subjects["class-b"])
	assert.NotContains(t, subjects, "class-z")
}
