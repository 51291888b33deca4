package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrTeacherConflict, "teacher busy"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrTeacherConflict.Code, appErr.Code)
	assert.Equal(t, "teacher busy", appErr.Message)
}

func TestFromErrorDefaultsToUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, "UNKNOWN_ERROR", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneDoesNotMutateTemplate(t *testing.T) {
	clone := WithDetails(ErrMissingSubjects, "missing core subjects: ENG", map[string][]string{"missing_codes": {"ENG"}})
	assert.Equal(t, "required subjects are missing", ErrMissingSubjects.Message)
	assert.Nil(t, ErrMissingSubjects.Details)
	assert.NotNil(t, clone.Details)
}

func TestSanitizeHidesInternalMessages(t *testing.T) {
	internal := Wrap(sql.ErrTxDone, ErrInternal.Code, ErrInternal.Status, "failed to upsert slots on shard 3")
	sanitized := Sanitize(internal)
	assert.Equal(t, ErrInternal.Message, sanitized.Message)
	assert.Nil(t, sanitized.Err)

	conflict := Clone(ErrClassConflict, "class busy")
	assert.Same(t, conflict, Sanitize(conflict))
}
