package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	metaStartKey    = "response_meta_start"
)

// Meta keys written into the response envelope.
const (
	MetaCacheHit       = "cache_hit"
	MetaRequestID      = "request_id"
	MetaProcessingTime = "processing_time_ms"
)

// WithResponseMeta gives every request a meta map that handlers can fill before responding.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta[MetaRequestID] = id
		}
		c.Set(responseMetaKey, meta)
		c.Set(metaStartKey, time.Now())
		c.Next()
	}
}

// SetMeta stores a single meta entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta := ResponseMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// SetCacheHit records whether a timetable view was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// ResponseMeta returns the meta map with the elapsed handler time filled in,
// or nil when WithResponseMeta is not installed.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Get(metaStartKey); ok {
		if t, ok := start.(time.Time); ok {
			meta[MetaProcessingTime] = time.Since(t).Milliseconds()
		}
	}
	return meta
}
