// Package notify delivers owner notifications about detection events.
// Intents are written to an outbox table once per event and kind, then a
// background worker delivers each of them at most once.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/signalbus"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/notify")

// Signal is raised on the signal bus whenever a new intent is stored.
const Signal = "/notifications"

type Intent struct {
	DeviceID string
	EventID  int64
	Kind     models.NotificationKind
	Payload  any
}

type Outbox struct {
	logger    *zap.SugaredLogger
	db        *gorm.DB
	signalBus signalbus.SignalBus
}

func NewOutbox(logger *zap.SugaredLogger, db *gorm.DB, signalBus signalbus.SignalBus) *Outbox {
	return &Outbox{
		logger:    logger,
		db:        db,
		signalBus: signalBus,
	}
}

// Emit stores intent unless one of the same kind already exists for the
// event, and wakes the delivery workers.
func (o *Outbox) Emit(ctx context.Context, intent Intent) error {
	ctx, span := tracer.Start(ctx, "Emit",
		trace.WithAttributes(
			attribute.String("device_id", intent.DeviceID),
			attribute.Int64("event_id", intent.EventID),
			attribute.String("kind", string(intent.Kind)),
		))
	defer span.End()

	payload, err := json.Marshal(intent.Payload)
	if err != nil {
		return err
	}
	row := models.NotificationIntent{
		ID:       uuid.New(),
		DeviceID: intent.DeviceID,
		EventID:  intent.EventID,
		Kind:     intent.Kind,
		Payload:  string(payload),
		State:    models.NotificationStatePending,
	}
	res := o.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		util.WithTrace(ctx, o.logger).Debugw("notification already emitted",
			"event_id", intent.EventID, "kind", intent.Kind)
		return nil
	}
	o.signalBus.Notify(Signal)
	return nil
}
