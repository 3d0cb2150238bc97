package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
)

const (
	// DeviceTokenHeader carries the access token issued when a device was claimed.
	DeviceTokenHeader = "X-Api-Token"
	// key for the authenticated device in gin.Context
	AuthDevice = "_leonardo.Device"
)

// DeviceTokenAuth authenticates device requests by access token. The device
// named in the path must be the one the token was issued to.
func (api *API) DeviceTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(DeviceTokenHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewFieldNotPresentError(DeviceTokenHeader))
			return
		}
		ctx := c.Request.Context()
		device, err := api.registry.GetDeviceByAccessToken(ctx, token)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewApiError(errors.New("invalid api token")))
				return
			}
			api.SendInternalServerError(c, err)
			c.Abort()
			return
		}
		if id := c.Param("id"); id != "" && id != device.DeviceID {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewNotAllowedError("device id does not match the api token"))
			return
		}
		if err := api.registry.TouchLastSeen(ctx, device.DeviceID, time.Now()); err != nil {
			api.Logger(ctx).Warnw("failed to update last seen", "device_id", device.DeviceID, "error", err)
		}
		c.Set(AuthDevice, device)
		c.Next()
	}
}

func (api *API) GetCurrentDevice(c *gin.Context) models.Device {
	device, found := c.Get(AuthDevice)
	if !found {
		api.SendInternalServerError(c, errors.New("no current device found"))
		panic("no current device found")
	}
	return device.(models.Device)
}
