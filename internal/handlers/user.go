package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateUserIfNotExists makes sure the owner identified by the token subject
// has a users row that devices and locations can reference.
func (api *API) CreateUserIfNotExists(ctx context.Context, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "CreateUserIfNotExists", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	// Retry the operation if we get a duplicate key error which can occur on concurrent requests when creating a user
	return util.RetryOperationForErrors(ctx, time.Millisecond*10, 1, []error{gorm.ErrDuplicatedKey}, func() error {
		return api.transaction(ctx, func(tx *gorm.DB) error {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.User{ID: userID})
			if res.Error != nil {
				if database.IsDuplicateError(res.Error) {
					res.Error = gorm.ErrDuplicatedKey
				}
				return res.Error
			}
			return nil
		})
	})
}

// UserMiddleware turns the subject set by the JWT validator into an owner id,
// creating the owner on first sight.
func (api *API) UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uuid.UUID
		subject, _ := c.Get(gin.AuthUserKey)
		switch v := subject.(type) {
		case uuid.UUID:
			userID = v
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewApiError(err))
				return
			}
			userID = id
		}
		if userID == uuid.Nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if err := api.CreateUserIfNotExists(c.Request.Context(), userID); err != nil {
			api.SendInternalServerError(c, err)
			c.Abort()
			return
		}
		c.Set(gin.AuthUserKey, userID)
		c.Next()
	}
}
