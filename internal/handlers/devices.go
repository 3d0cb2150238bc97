package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ClaimDevice registers a device to the current user
// @Summary      Claim Device
// @Description  Claims a device with the factory token hash printed on its QR code
// @Id           ClaimDevice
// @Tags         Devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Param        fth  query     string  true  "Factory token hash"
// @Success      201  {object}  models.ClaimDeviceResponse
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      409  {object}  models.NotAllowedError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/register [post]
func (api *API) ClaimDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ClaimDevice",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	fth := c.Query("fth")
	if fth == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("fth"))
		return
	}

	result, err := api.claims.Claim(ctx, c.Param("id"), fth, api.GetCurrentUserID(c))
	if err != nil {
		api.sendError(c, err)
		return
	}

	message := "device registered"
	if result.AlreadyOwned {
		message = "device already registered to you"
	}
	c.JSON(http.StatusCreated, models.ClaimDeviceResponse{
		DeviceID:    result.Device.DeviceID,
		AccessToken: result.AccessToken,
		Message:     message,
	})
}

// ListDevices lists the devices of the current user
// @Summary      List Devices
// @Id           ListDevices
// @Tags         Devices
// @Produce      json
// @Success      200  {object}  []models.Device
// @Failure      401  {object}  models.BaseError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices [get]
func (api *API) ListDevices(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListDevices")
	defer span.End()

	devices, err := api.registry.ListOwnedDevices(ctx, api.GetCurrentUserID(c))
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}
	setTotalCount(c, len(devices))
	c.JSON(http.StatusOK, devices)
}

// GetDevice gets a device of the current user
// @Summary      Get Device
// @Id           GetDevice
// @Tags         Devices
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  models.Device
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id} [get]
func (api *API) GetDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetDevice",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	device, err := api.registry.GetOwnedDevice(ctx, c.Param("id"), api.GetCurrentUserID(c))
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// SetupDevice configures the alerting of a device
// @Summary      Setup Device
// @Description  Sets where alerts are delivered and which detections alert
// @Id           SetupDevice
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Device ID"
// @Param        setup  body      models.DeviceSetup  true  "Alerting configuration"
// @Success      200  {object}  models.Device
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/setup [put]
func (api *API) SetupDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "SetupDevice",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	var request models.DeviceSetup
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	device, err := api.registry.SetConfig(ctx, c.Param("id"), api.GetCurrentUserID(c), request.NotificationTarget, request.DetectionTargets)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// UpdateDevice updates the status or plan of a device
// @Summary      Update Device
// @Description  Suspends, reactivates or changes the plan of a device
// @Id           UpdateDevice
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Device ID"
// @Param        update  body      models.UpdateDevice  true  "Device update"
// @Success      200  {object}  models.Device
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id} [patch]
func (api *API) UpdateDevice(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateDevice",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	var request models.UpdateDevice
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}
	if request.Status == nil && request.Plan == nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(errors.New("status or plan is required")))
		return
	}

	deviceID := c.Param("id")
	owner := api.GetCurrentUserID(c)
	var device models.Device
	err := api.transaction(ctx, func(tx *gorm.DB) error {
		reg := api.registry.WithTx(tx)
		var err error
		if request.Status != nil {
			if device, err = reg.SetStatus(ctx, deviceID, owner, *request.Status); err != nil {
				return err
			}
		}
		if request.Plan != nil {
			if device, err = reg.SetPlan(ctx, deviceID, owner, *request.Plan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}
