package server

import (
	"sync/atomic"
	"time"

	"github.com/zeusync/navwalk/internal/core/events/bus"
	"github.com/zeusync/navwalk/internal/core/observability/log"
)

// deliveryObserver watches the session bus while the HUD is subscribed.
// Registering it also turns on the bus counters reported at shutdown.
type deliveryObserver struct {
	logger log.Log
	failed atomic.Uint64
}

func (o *deliveryObserver) OnPublish(string, bus.Event) {}

func (o *deliveryObserver) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err == nil {
		return
	}
	o.failed.Add(1)
	o.logger.Debug("event delivery failed",
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", time.Duration(durationMicros)*time.Microsecond),
		log.Error(err))
}
