package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"libraryhub/internal/microservices/http-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 128
)

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first response for a repeated Idempotency-Key so a
// retried borrow or reservation does not act twice. Keys are scoped to the
// caller and route. Requests without the header, or with a nil store, pass
// straight through. 5xx responses are not remembered.
func Idempotency(store repository.IdempotencyStore, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key is too long"})
			return
		}

		scoped := fmt.Sprintf("%d:%s:%s:%s", SubjectFrom(c).MemberID, c.Request.Method, c.FullPath(), key)
		ctx := c.Request.Context()

		stored, err := store.Begin(ctx, scoped, ttl)
		if err != nil {
			// the store is optional; degrade to a normal request
			log.Warn().Err(err).Msg("idempotency store unavailable")
			c.Next()
			return
		}
		if stored != nil {
			if stored.Status == 0 {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this Idempotency-Key is still in progress"})
				return
			}
			c.Header(ReplayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		// the request context may already be cancelled
		detached := func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		}

		// a panic, a 5xx or a failed Complete frees the key for a retry
		done := false
		defer func() {
			if done {
				return
			}
			bg, cancel := detached()
			defer cancel()
			if err := store.Release(bg, scoped); err != nil {
				log.Warn().Err(err).Msg("release idempotency key")
			}
		}()

		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		resp := repository.StoredResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		bg, cancel := detached()
		defer cancel()
		if err := store.Complete(bg, scoped, resp, ttl); err != nil {
			log.Warn().Err(err).Msg("store idempotent response")
			return
		}
		done = true
	}
}
