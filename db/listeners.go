package db

import (
	"context"
	"errors"

	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/alann-h/picking-software-sub002/events"
	"github.com/alann-h/picking-software-sub002/events/event"
	"go.uber.org/zap"
)

// Auditor is a way to write audit log events into a persistent store
type Auditor interface {
	addToAuditLog(event string, payload tables.MapStructure) error
}

// BootstrapListeners registers all the event listeners from this package
func BootstrapListeners(store Auditor, log *zap.Logger) []events.EventListener {
	return []events.EventListener{
		&tokenRefreshedListener{
			log:   log,
			store: store,
		},
		&tokenRefreshFailedListener{
			log:   log,
			store: store,
		},
		&reauthRequiredListener{
			log:   log,
			store: store,
		},
		&connectionRestoredListener{
			log:   log,
			store: store,
		},
	}
}

var errUnexpectedEvent = errors.New("listener received unexpected event type")

type tokenRefreshedListener struct {
	log   *zap.Logger
	store Auditor
}

func (*tokenRefreshedListener) ForEvent() events.EventName {
	return (&event.TokenRefreshed{}).Name()
}

func (l *tokenRefreshedListener) Handle(_ context.Context, ev events.Event) error {
	e, ok := ev.(*event.TokenRefreshed)
	if !ok {
		return errUnexpectedEvent
	}
	return l.store.addToAuditLog(string(ev.Name()), tables.MapStructure{
		"tenant_id": e.TenantID.String(),
		"provider":  e.Provider,
	})
}

type tokenRefreshFailedListener struct {
	log   *zap.Logger
	store Auditor
}

func (*tokenRefreshFailedListener) ForEvent() events.EventName {
	return (&event.TokenRefreshFailed{}).Name()
}

func (l *tokenRefreshFailedListener) Handle(_ context.Context, ev events.Event) error {
	e, ok := ev.(*event.TokenRefreshFailed)
	if !ok {
		return errUnexpectedEvent
	}
	return l.store.addToAuditLog(string(ev.Name()), tables.MapStructure{
		"tenant_id": e.TenantID.String(),
		"provider":  e.Provider,
		"reason":    e.Reason,
	})
}

type reauthRequiredListener struct {
	log   *zap.Logger
	store Auditor
}

func (*reauthRequiredListener) ForEvent() events.EventName {
	return (&event.ReauthRequired{}).Name()
}

func (l *reauthRequiredListener) Handle(_ context.Context, ev events.Event) error {
	e, ok := ev.(*event.ReauthRequired)
	if !ok {
		return errUnexpectedEvent
	}
	return l.store.addToAuditLog(string(ev.Name()), tables.MapStructure{
		"tenant_id": e.TenantID.String(),
		"provider":  e.Provider,
		"cause":     e.Cause,
	})
}

type connectionRestoredListener struct {
	log   *zap.Logger
	store Auditor
}

func (*connectionRestoredListener) ForEvent() events.EventName {
	return (&event.ConnectionRestored{}).Name()
}

func (l *connectionRestoredListener) Handle(_ context.Context, ev events.Event) error {
	e, ok := ev.(*event.ConnectionRestored)
	if !ok {
		return errUnexpectedEvent
	}
	return l.store.addToAuditLog(string(ev.Name()), tables.MapStructure{
		"tenant_id":      e.TenantID.String(),
		"provider":       e.Provider,
		"after_failures": e.AfterFailures,
	})
}
