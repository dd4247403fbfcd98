package calendar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bouncehire/backend/internal/websocket"
)

// Scheduler runs the periodic reconciliation sweep against the calendar.
// Sweeps never overlap: the reconciliation service is the single writer to
// the calendar, so a triggered sync while a sweep is running is skipped.
type Scheduler struct {
	cron        *cron.Cron
	syncService *Service
	broadcaster *websocket.EventBroadcaster

	interval time.Duration

	runningMu sync.Mutex
	running   bool
}

// NewScheduler creates a calendar reconciliation scheduler. hub may be nil.
func NewScheduler(syncService *Service, hub *websocket.Hub, intervalMin int) *Scheduler {
	if intervalMin <= 0 {
		intervalMin = 15
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		syncService: syncService,
		broadcaster: broadcaster,
		interval:    time.Duration(intervalMin) * time.Minute,
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Println("Starting calendar reconciliation scheduler...")

	s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.runSweep()
	})

	s.cron.Start()
	log.Printf("Calendar reconciliation scheduler started (every %s)", s.interval)
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep.
func (s *Scheduler) Stop() {
	log.Println("Stopping calendar reconciliation scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Calendar reconciliation scheduler stopped")
}

// TriggerSync runs a reconciliation sweep immediately, off the cron cadence.
func (s *Scheduler) TriggerSync() {
	go s.runSweep()
}

// runSweep performs one full reconciliation pass.
func (s *Scheduler) runSweep() {
	if !s.tryAcquire() {
		log.Println("Calendar sweep already running, skipping")
		return
	}
	defer s.release()

	ctx := context.Background()
	log.Println("Running calendar reconciliation sweep...")

	summary := s.syncService.SyncAll(ctx)

	log.Printf("Calendar sweep completed: %d checked, %d synced, %d conflicts, %d errors",
		summary.Checked, summary.Synced, summary.Conflicts, len(summary.Errors))

	for _, e := range summary.Errors {
		log.Printf("Calendar sweep error (booking %s): %s", e.BookingID, e.Message)
	}

	if s.broadcaster == nil {
		return
	}

	s.broadcaster.BroadcastCalendarSyncCompleted(summary.Checked, summary.Synced, summary.Conflicts, len(summary.Errors))
	for _, c := range summary.ConflictDetails {
		s.broadcaster.BroadcastSyncConflictDetected(c.BookingID, c.Reference, c.ConflictType)
	}
	for _, e := range summary.Errors {
		s.broadcaster.BroadcastCalendarSyncError(fmt.Errorf("booking %s: %s", e.BookingID, e.Message))
	}
}

func (s *Scheduler) tryAcquire() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()
}
