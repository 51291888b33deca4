package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return seen, rec.Header().Get(Header)
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	seen, echoed := serve(t, "edge-42.a_b")
	assert.Equal(t, "edge-42.a_b", seen)
	assert.Equal(t, "edge-42.a_b", echoed)
}

func TestMiddlewareReplacesMissingOrMalformedID(t *testing.T) {
	for _, inbound := range []string{"", "bad id\nInjected: 1", strings.Repeat("x", 65)} {
		seen, echoed := serve(t, inbound)
		_, err := uuid.Parse(seen)
		require.NoError(t, err, inbound)
		assert.Equal(t, seen, echoed)
	}
}
