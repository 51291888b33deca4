package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func record(handler gin.HandlerFunc) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return rec, c
}

func TestErrorHidesInternalCause(t *testing.T) {
	rec, c := record(func(c *gin.Context) {
		Error(c, errors.New("pq: relation timetable_slots does not exist"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "timetable_slots")
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "timetable_slots")
}

func TestErrorKeepsDomainErrors(t *testing.T) {
	rec, c := record(func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrTeacherConflict, "teacher already teaches at that time"))
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, c.Errors)
	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrTeacherConflict.Code, body.Error.Code)
	assert.Equal(t, "teacher already teaches at that time", body.Error.Message)
}

func TestAttachmentQuotesFilename(t *testing.T) {
	rec, _ := record(func(c *gin.Context) {
		Attachment(c, "timetable_Form 3.csv", "text/csv", []byte("Period\n"))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="timetable_Form 3.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Period\n", rec.Body.String())
}
