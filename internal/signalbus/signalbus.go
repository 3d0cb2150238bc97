// Package signalbus wakes background workers when named events occur,
// such as a new notification intent being written.
package signalbus

import (
	"sync"
)

type SignalBus interface {
	// Notify wakes every subscription to the named signal.
	Notify(name string)
	// NotifyAll wakes every subscription.
	NotifyAll()
	// Subscribe creates a subscription to the named signal.
	Subscribe(name string) *Subscription
}

var _ SignalBus = &signalBus{}

type signalBus struct {
	mu      sync.RWMutex
	signals map[string]map[*Subscription]struct{}
}

// NewSignalBus creates an in memory SignalBus.
func NewSignalBus() SignalBus {
	return &signalBus{
		signals: make(map[string]map[*Subscription]struct{}),
	}
}

func (sb *signalBus) Notify(name string) {
	sb.mu.RLock()
	subs := make([]*Subscription, 0, len(sb.signals[name]))
	for sub := range sb.signals[name] {
		subs = append(subs, sub)
	}
	sb.mu.RUnlock()
	wake(subs)
}

func (sb *signalBus) NotifyAll() {
	var subs []*Subscription
	sb.mu.RLock()
	for _, named := range sb.signals {
		for sub := range named {
			subs = append(subs, sub)
		}
	}
	sb.mu.RUnlock()
	wake(subs)
}

func (sb *signalBus) Subscribe(name string) *Subscription {
	sub := &Subscription{
		sb:   sb,
		name: name,
		c:    make(chan struct{}, 1),
	}
	sb.mu.Lock()
	if sb.signals[name] == nil {
		sb.signals[name] = map[*Subscription]struct{}{}
	}
	sb.signals[name][sub] = struct{}{}
	sb.mu.Unlock()
	return sub
}

func (sb *signalBus) unsubscribe(sub *Subscription) {
	sb.mu.Lock()
	delete(sb.signals[sub.name], sub)
	if len(sb.signals[sub.name]) == 0 {
		delete(sb.signals, sub.name)
	}
	sb.mu.Unlock()
}

// wake never blocks, a subscription that is already signaled stays signaled once.
func wake(subs []*Subscription) {
	for _, sub := range subs {
		select {
		case sub.c <- struct{}{}:
		default:
		}
	}
}

type Subscription struct {
	sb        *signalBus
	name      string
	closeOnce sync.Once
	c         chan struct{}
}

func (sub *Subscription) Name() string {
	return sub.name
}

// Signal returns a channel that receives a value when the subscription is
// notified. Notifications that arrive while one is pending are coalesced.
func (sub *Subscription) Signal() <-chan struct{} {
	return sub.c
}

// IsSignaled consumes a pending notification, if any.
func (sub *Subscription) IsSignaled() bool {
	select {
	case <-sub.c:
		return true
	default:
		return false
	}
}

func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.sb.unsubscribe(sub)
	})
}
