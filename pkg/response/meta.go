package response

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/pkg/middleware/requestid"
)

const metaKey = "response_meta"

// Meta carries per-request diagnostics in the envelope.
type Meta struct {
	RequestID        string `json:"request_id,omitempty"`
	CacheHit         *bool  `json:"cache_hit,omitempty"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

type metaState struct {
	start    time.Time
	cacheHit *bool
}

// TrackMeta starts the request clock so envelopes written later carry Meta.
func TrackMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaKey, &metaState{start: time.Now()})
		c.Next()
	}
}

// MarkCacheHit records whether the payload came from cache.
func MarkCacheHit(c *gin.Context, hit bool) {
	if st := state(c); st != nil {
		st.cacheHit = &hit
	}
}

func collectMeta(c *gin.Context) *Meta {
	st := state(c)
	if st == nil {
		return nil
	}
	return &Meta{
		RequestID:        requestid.Value(c),
		CacheHit:         st.cacheHit,
		ProcessingTimeMS: time.Since(st.start).Milliseconds(),
	}
}

func state(c *gin.Context) *metaState {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(metaKey); ok {
		if st, ok := v.(*metaState); ok {
			return st
		}
	}
	return nil
}
