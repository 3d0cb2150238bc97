package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/classifier"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RecordEvent stores a detection reported by a device
// @Summary      Record Event
// @Description  Stores a detection event and flags it when the device seems to have moved
// @Id           RecordEvent
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        X-Api-Token  header    string                    true  "Device access token"
// @Param        id           path      string                    true  "Device ID"
// @Param        event        body      models.AddDetectionEvent  true  "Detection"
// @Success      201  {object}  models.AddDetectionEventResponse
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      503  {object}  models.UnavailableError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/event [post]
func (api *API) RecordEvent(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "RecordEvent",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	device := api.GetCurrentDevice(c)

	var request models.AddDetectionEvent
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}
	if request.Category == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("detection_type"))
		return
	}
	if request.Confidence == nil {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("confidence"))
		return
	}

	event := classifier.Event{
		DeviceID:   device.DeviceID,
		Category:   request.Category,
		Confidence: *request.Confidence,
		SourceIP:   util.ClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr),
		MediaRef:   request.MediaRef,
	}
	if request.Timestamp != nil {
		event.DetectedAt = *request.Timestamp
	}

	result, err := api.classifier.RecordEvent(ctx, event)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.AddDetectionEventResponse{
		EventID:          result.EventID,
		LocationMismatch: result.LocationMismatch,
	})
}

// DeviceStatus reports the state of the calling device
// @Summary      Device Status
// @Description  Returns the status and the active location of the calling device
// @Id           DeviceStatus
// @Tags         Device
// @Produce      json
// @Param        X-Api-Token  header    string  true  "Device access token"
// @Param        id           path      string  true  "Device ID"
// @Success      200  {object}  models.DeviceStatusResponse
// @Failure      401  {object}  models.BaseError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/status [get]
func (api *API) DeviceStatus(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeviceStatus",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	device := api.GetCurrentDevice(c)
	record, placed, err := api.ledger.ActiveLocation(ctx, device.DeviceID)
	if err != nil {
		api.SendInternalServerError(c, err)
		return
	}

	response := models.DeviceStatusResponse{
		Status: device.Status,
	}
	if placed {
		response.ActiveLocation = &models.ActiveLocation{
			Latitude:   record.Latitude,
			Longitude:  record.Longitude,
			PrecisionM: record.PrecisionM,
			RecordedAt: record.RecordedAt,
		}
	}
	c.JSON(http.StatusOK, response)
}

// UploadLogs stores events a device buffered while offline
// @Summary      Upload Logs
// @Description  Stores detections buffered on the device, they are never flagged
// @Id           UploadLogs
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        X-Api-Token  header    string             true  "Device access token"
// @Param        id           path      string             true  "Device ID"
// @Param        logs         body      models.UploadLogs  true  "Buffered events"
// @Success      201  {object}  models.UploadLogsResponse
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      405  {object}  models.NotAllowedError
// @Failure      503  {object}  models.UnavailableError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/upload-logs [post]
func (api *API) UploadLogs(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UploadLogs",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	if !api.FlagCheck(c, FlagOfflineUpload) {
		return
	}
	device := api.GetCurrentDevice(c)

	var request models.UploadLogs
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}

	events := make([]classifier.Event, 0, len(request.Events))
	for i, e := range request.Events {
		if e.Confidence == nil {
			c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError(fmt.Sprintf("events[%d].confidence", i)))
			return
		}
		events = append(events, classifier.Event{
			DeviceID:   device.DeviceID,
			Category:   e.Category,
			Confidence: *e.Confidence,
			DetectedAt: e.Timestamp,
			MediaRef:   e.MediaRef,
		})
	}

	inserted, err := api.classifier.UploadOfflineEvents(ctx, device.DeviceID, events)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.UploadLogsResponse{
		Inserted: inserted,
		Message:  fmt.Sprintf("%d offline events uploaded", inserted),
	})
}

// ListEvents lists the detections of a device
// @Summary      List Events
// @Description  Lists detection events of a device, most recent first
// @Id           ListEvents
// @Tags         Events
// @Produce      json
// @Param        id     path      string  true   "Device ID"
// @Param        range  query     string  false  "Inclusive range, e.g. [0,99]"
// @Success      200  {object}  []models.DetectionEvent
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      404  {object}  models.NotFoundError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/v1/devices/{id}/events [get]
func (api *API) ListEvents(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListEvents",
		trace.WithAttributes(
			attribute.String("id", c.Param("id")),
		))
	defer span.End()

	var query Query
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError(err))
		return
	}
	limit, offset := 0, 0
	if query.Range != "" {
		var err error
		if limit, offset, err = query.GetRange(); err != nil {
			c.JSON(http.StatusBadRequest, models.NewFieldValidationError("range", err.Error()))
			return
		}
	}

	events, err := api.classifier.ListEvents(ctx, c.Param("id"), api.GetCurrentUserID(c), limit, offset)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
