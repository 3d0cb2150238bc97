package routers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/models"
)

type Limiter struct {
	limit chan struct{}
}

func NewLimiter(maxConcurrency int) Limiter {
	serializer := make(chan struct{}, maxConcurrency)
	return Limiter{
		limit: serializer,
	}
}

func (c *Limiter) Do(ctx context.Context, f func()) (canceled bool) {

	select {
	case c.limit <- struct{}{}:
		defer func() {
			<-c.limit
		}()
		f()
		canceled = false
	case <-ctx.Done():
		canceled = true
	}
	return
}

// ConcurrencyLimit caps the number of requests handled at once by the routes
// it is applied to. Waiting requests give up when their context ends.
func ConcurrencyLimit(maxConcurrency int) gin.HandlerFunc {
	if maxConcurrency <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	limiter := NewLimiter(maxConcurrency)
	return func(c *gin.Context) {
		if canceled := limiter.Do(c.Request.Context(), c.Next); canceled {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.NewUnavailableError("too many concurrent requests"))
		}
	}
}
