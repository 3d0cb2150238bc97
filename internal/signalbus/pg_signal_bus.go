package signalbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leonardo-io/leonardo/internal/util"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Channel is the PostgreSQL notification channel shared by every api server.
const Channel = "leonardo_signals"

const notifyAll = "*"

var _ SignalBus = &PgSignalBus{}

// PgSignalBus is a SignalBus clustered through PostgreSQL LISTEN/NOTIFY so a
// signal raised on one api server wakes subscribers on all of them.
type PgSignalBus struct {
	local      SignalBus
	db         *gorm.DB
	connectDSN string
	logger     *zap.SugaredLogger
}

func NewPgSignalBus(local SignalBus, db *gorm.DB, connectDSN string, logger *zap.SugaredLogger) *PgSignalBus {
	return &PgSignalBus{
		local:      local,
		db:         db,
		connectDSN: connectDSN,
		logger:     logger,
	}
}

// Notify publishes through the database, the listener started by Start
// delivers it back to the local bus.
func (b *PgSignalBus) Notify(name string) {
	if err := b.db.Exec("SELECT pg_notify(?, ?)", Channel, name).Error; err != nil {
		b.logger.Infow("pg_notify failed", "signal", name, "error", err)
	}
}

func (b *PgSignalBus) NotifyAll() {
	b.Notify(notifyAll)
}

// Subscribe subscribes on the local bus.
func (b *PgSignalBus) Subscribe(name string) *Subscription {
	return b.local.Subscribe(name)
}

// Start listens on Channel until ctx is done.
func (b *PgSignalBus) Start(ctx context.Context, wg *sync.WaitGroup) {
	util.GoWithWaitGroup(wg, func() {
		listener := pq.NewListener(b.connectDSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				b.logger.Infow("pq listener error", "error", err)
			}
			// anything may have been missed while disconnected
			if ev == pq.ListenerEventReconnected {
				b.local.NotifyAll()
			}
		})
		defer util.IgnoreError(listener.Close)

		if err := listener.Listen(Channel); err != nil {
			b.logger.Errorw("failed to listen for signals", "channel", Channel, "error", err)
			return
		}
		for {
			exit, err := b.dispatch(ctx, listener)
			if exit {
				return
			}
			if err != nil {
				b.logger.Warnw("signal listener failed", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}
	})
}

func (b *PgSignalBus) dispatch(ctx context.Context, l *pq.Listener) (exit bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case n := <-l.Notify:
			if n == nil {
				return false, errors.New("postgres listener channel closed")
			}
			b.logger.Debugw("signal received", "signal", n.Extra)
			if n.Extra == notifyAll {
				b.local.NotifyAll()
			} else {
				b.local.Notify(n.Extra)
			}
		case <-time.After(90 * time.Second):
			if err := l.Ping(); err != nil {
				return false, err
			}
		}
	}
}
