package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
)

// RunFunc performs one scan at now.
type RunFunc func(ctx context.Context, now time.Time) (models.Ranking, error)

// Service triggers scans on cron expressions evaluated in the exchange zone.
type Service struct {
	cron    *cron.Cron
	run     RunFunc
	logger  arbor.ILogger
	loc     *time.Location
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex // Protects status, running and entries
	runMu   sync.Mutex // Prevents overlapping runs
	status  models.ScheduleStatus
	running bool
	entries []cron.EntryID
}

// NewService creates a scheduler for run. Cron expressions are read in loc.
func NewService(loc *time.Location, run RunFunc, logger arbor.ILogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(cron.WithLocation(loc)),
		run:    run,
		logger: logger,
		loc:    loc,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the cron expressions and starts the scheduler.
func (s *Service) Start(exprs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(exprs) == 0 {
		return fmt.Errorf("no cron expressions configured")
	}

	for _, expr := range exprs {
		id, err := s.cron.AddFunc(expr, s.runScheduledTask)
		if err != nil {
			for _, added := range s.entries {
				s.cron.Remove(added)
			}
			s.entries = nil
			return fmt.Errorf("failed to add cron job %q: %w", expr, err)
		}
		s.entries = append(s.entries, id)
		s.logger.Info().
			Str("cron_expr", expr).
			Str("timezone", s.loc.String()).
			Msg("Scheduled premarket scan")
	}

	s.cron.Start()
	s.running = true
	return nil
}

// Stop stops the scheduler, cancels an in-flight run and waits for it to return.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// TriggerNow runs a scan immediately unless one is already in progress.
func (s *Service) TriggerNow(ctx context.Context) error {
	return s.execute(ctx)
}

// Status returns a snapshot of the scheduler state.
func (s *Service) Status() models.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.status
	status.Running = s.running
	status.Entries = len(s.entries)
	if s.running {
		var next time.Time
		for _, e := range s.cron.Entries() {
			if !e.Next.IsZero() && (next.IsZero() || e.Next.Before(next)) {
				next = e.Next
			}
		}
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Service) runScheduledTask() {
	if err := s.execute(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled scan did not complete")
	}
}

func (s *Service) execute(ctx context.Context) error {
	if !s.runMu.TryLock() {
		s.mu.Lock()
		s.status.Skipped++
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous scan still running, skipping trigger")
		return fmt.Errorf("scan already in progress")
	}
	defer s.runMu.Unlock()

	s.setInProgress(true)
	defer s.setInProgress(false)

	now := s.now()
	var (
		result models.Ranking
		runErr error
	)
	if err := common.Recover(s.logger, "scheduled-scan", func() {
		result, runErr = s.run(ctx, now)
	}); err != nil {
		runErr = err
	}

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = &now
	s.status.LastRunID = result.RunID
	s.status.LastPhase = result.Phase
	s.status.LastCandidates = len(result.Candidates)
	s.status.LastError = ""
	if runErr != nil {
		s.status.LastError = runErr.Error()
	}
	s.mu.Unlock()

	return runErr
}

func (s *Service) setInProgress(v bool) {
	s.mu.Lock()
	s.status.InProgress = v
	s.mu.Unlock()
}
