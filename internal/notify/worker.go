package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/signalbus"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPollInterval = 30 * time.Second
	defaultBatchSize    = 50
)

// Worker delivers pending intents. Any number of workers, in any number of
// processes, may run against the same database: each intent is claimed by
// exactly one of them and is never attempted twice.
type Worker struct {
	logger    *zap.SugaredLogger
	db        *gorm.DB
	signalBus signalbus.SignalBus
	senders   []Sender
	interval  time.Duration
	batchSize int
}

func NewWorker(logger *zap.SugaredLogger, db *gorm.DB, signalBus signalbus.SignalBus, interval time.Duration, senders ...Sender) *Worker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Worker{
		logger:    logger,
		db:        db,
		signalBus: signalBus,
		senders:   senders,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

// Start delivers pending intents whenever Signal is raised and on every
// poll interval, until ctx is done.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	sub := w.signalBus.Subscribe(Signal)
	util.GoWithWaitGroup(wg, func() {
		defer sub.Close()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warnw("notification delivery pass failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-sub.Signal():
			case <-ticker.C:
			}
		}
	})
}

// ProcessPending delivers pending intents until none are left and returns
// how many this worker claimed.
func (w *Worker) ProcessPending(ctx context.Context) (int, error) {
	claimed := 0
	for {
		var intents []models.NotificationIntent
		if err := w.db.WithContext(ctx).
			Where("state = ?", models.NotificationStatePending).
			Order("created_at").
			Limit(w.batchSize).
			Find(&intents).Error; err != nil {
			return claimed, err
		}
		if len(intents) == 0 {
			return claimed, nil
		}
		for _, intent := range intents {
			if ctx.Err() != nil {
				return claimed, ctx.Err()
			}
			ok, err := w.claim(ctx, intent)
			if err != nil {
				return claimed, err
			}
			if !ok {
				continue
			}
			claimed++
			w.deliver(ctx, intent)
		}
	}
}

// claim moves the intent out of pending, only one caller can succeed.
func (w *Worker) claim(ctx context.Context, intent models.NotificationIntent) (bool, error) {
	res := w.db.WithContext(ctx).
		Model(&models.NotificationIntent{}).
		Where("id = ? AND state = ?", intent.ID, models.NotificationStatePending).
		Update("state", models.NotificationStateSending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (w *Worker) deliver(ctx context.Context, intent models.NotificationIntent) {
	ctx, span := tracer.Start(ctx, "Deliver",
		trace.WithAttributes(
			attribute.String("device_id", intent.DeviceID),
			attribute.Int64("event_id", intent.EventID),
			attribute.String("kind", string(intent.Kind)),
		))
	defer span.End()
	logger := util.WithTrace(ctx, w.logger).With("device_id", intent.DeviceID, "event_id", intent.EventID, "kind", intent.Kind)

	err := w.send(ctx, intent)
	state := models.NotificationStateSent
	var errText *string
	if err != nil {
		state = models.NotificationStateFailed
		errText = util.PtrString(err.Error())
		logger.Infow("notification not delivered", "error", err)
	} else {
		logger.Infow("notification delivered")
	}

	// the outcome is recorded even when ctx was cancelled mid delivery
	if res := w.db.WithContext(context.WithoutCancel(ctx)).
		Model(&models.NotificationIntent{}).
		Where("id = ?", intent.ID).
		Updates(map[string]interface{}{
			"state": state,
			"error": errText,
		}); res.Error != nil {
		logger.Warnw("failed to record notification outcome", "error", res.Error)
	}
}

func (w *Worker) send(ctx context.Context, intent models.NotificationIntent) error {
	msg, err := Render(intent.Kind, intent.Payload)
	if err != nil {
		return err
	}
	msg.DeviceID = intent.DeviceID
	msg.Kind = intent.Kind
	var device models.Device
	if err := w.db.WithContext(ctx).
		Select("device_id", "notification_target").
		First(&device, "device_id = ?", intent.DeviceID).Error; err != nil {
		return err
	}

	delivered := 0
	var failures []string
	for _, sender := range w.senders {
		err := sender.Send(ctx, device.NotificationTarget, msg)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrNoAddress):
		default:
			failures = append(failures, sender.Name()+": "+err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.New(strings.Join(failures, "; "))
	}
	if delivered == 0 {
		return ErrNoAddress
	}
	return nil
}
