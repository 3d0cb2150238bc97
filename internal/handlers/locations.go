package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/ledger"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AddLocation sets the monitoring location of a device
// @Summary      Add Location
// @Description  Places a device, the new location becomes the only active one
// @Id           AddLocation
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Param        id        path      string              true  "Device ID"
// @Param        location  body      models.AddLocation  true  "Location"
// @Success      201  {object}  models.AddLocationResponse
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/location [post]
func (api *API) AddLocation(c *gin.Context) {
	api.placeLocation(c, "AddLocation")
}

// RelocateDevice moves a device to a new monitoring location
// @Summary      Relocate Device
// @Description  Places a device again, the previous location is kept in its history
// @Id           RelocateDevice
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Param        id        path      string              true  "Device ID"
// @Param        location  body      models.AddLocation  true  "Location"
// @Success      201  {object}  models.AddLocationResponse
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/relocate [post]
func (api *API) RelocateDevice(c *gin.Context) {
	api.placeLocation(c, "RelocateDevice")
}

func (api *API) placeLocation(c *gin.Context, op string) {
	ctx, span := tracer.Start(c.Request.Context(), op,
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	var request models.AddLocation
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}
	if request.Latitude == nil {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("lat"))
		return
	}
	if request.Longitude == nil {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("lon"))
		return
	}

	result, err := api.ledger.PlaceLocation(ctx, ledger.Placement{
		DeviceID:   c.Param("id"),
		Latitude:   *request.Latitude,
		Longitude:  *request.Longitude,
		PrecisionM: request.PrecisionM,
		OwnerID:    api.GetCurrentUserID(c),
		SourceIP:   util.ClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr),
	})
	if err != nil {
		api.sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AddLocationResponse{
		LocationID: result.Record.ID,
		Precision:  string(result.Precision),
		Warning:    result.Warning,
	})
}

// ListLocations lists the location history of a device
// @Summary      List Locations
// @Description  Lists every placement of a device, most recent first
// @Id           ListLocations
// @Tags         Locations
// @Produce      json
// @Param        id   path      string  true  "Device ID"
// @Success      200  {object}  []models.LocationRecord
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/locations [get]
func (api *API) ListLocations(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListLocations",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	records, err := api.ledger.History(ctx, c.Param("id"), api.GetCurrentUserID(c))
	if err != nil {
		api.sendError(c, err)
		return
	}
	setTotalCount(c, len(records))
	c.JSON(http.StatusOK, records)
}
