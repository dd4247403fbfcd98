package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bouncehire/backend/internal/websocket"
)

// Scheduler runs the completion and expiry sweeps on a fixed interval.
type Scheduler struct {
	cron        *cron.Cron
	engine      *Engine
	broadcaster *websocket.EventBroadcaster

	sweepInterval  time.Duration
	expiryInterval time.Duration
}

// NewScheduler creates a lifecycle sweep scheduler. hub may be nil when
// no dashboard clients need to hear about transitions.
func NewScheduler(engine *Engine, hub *websocket.Hub, sweepIntervalSec int) *Scheduler {
	if sweepIntervalSec <= 0 {
		sweepIntervalSec = 60
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:           cron.New(cron.WithSeconds()),
		engine:         engine,
		broadcaster:    broadcaster,
		sweepInterval:  time.Duration(sweepIntervalSec) * time.Second,
		expiryInterval: 5 * time.Minute,
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Println("Starting booking lifecycle scheduler...")

	s.cron.AddFunc("@every "+s.sweepInterval.String(), func() {
		s.runCompletionSweep()
	})

	s.cron.AddFunc("@every "+s.expiryInterval.String(), func() {
		s.runExpirySweep()
	})

	s.cron.Start()
	log.Printf("Booking lifecycle scheduler started (sweep every %s)", s.sweepInterval)
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() {
	log.Println("Stopping booking lifecycle scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Booking lifecycle scheduler stopped")
}

// TriggerSweep runs a completion sweep immediately, off the cron cadence.
func (s *Scheduler) TriggerSweep() {
	go s.runCompletionSweep()
}

// runCompletionSweep moves elapsed confirmed bookings to completed.
func (s *Scheduler) runCompletionSweep() {
	ctx := context.Background()

	summary := s.engine.ProcessAll(ctx)
	if summary.Transitioned > 0 || len(summary.Errors) > 0 {
		log.Printf("Completion sweep: %d checked, %d completed, %d errors",
			summary.Checked, summary.Transitioned, len(summary.Errors))
	}

	s.announce(summary)
}

// runExpirySweep expires pending bookings past their TTL.
func (s *Scheduler) runExpirySweep() {
	ctx := context.Background()

	summary := s.engine.ExpirePending(ctx)
	if summary.Transitioned > 0 || len(summary.Errors) > 0 {
		log.Printf("Expiry sweep: %d checked, %d expired, %d errors",
			summary.Checked, summary.Transitioned, len(summary.Errors))
	}

	s.announce(summary)
}

// announce pushes transitions and failures from a sweep to the dashboard.
func (s *Scheduler) announce(summary Summary) {
	if s.broadcaster == nil {
		return
	}

	for _, t := range summary.Transitions {
		s.broadcaster.BroadcastBookingStatusChanged(t.BookingID, t.Reference, t.FromStatus, t.ToStatus, t.Reason)
	}

	for _, e := range summary.Errors {
		log.Printf("Lifecycle sweep error (booking %s): %s", e.BookingID, e.Message)
		s.broadcaster.BroadcastNotification("error", "Lifecycle sweep error",
			fmt.Sprintf("booking %s: %s", e.BookingID, e.Message))
	}
}
