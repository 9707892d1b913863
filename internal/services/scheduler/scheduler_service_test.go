package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/models"
)

func TestStart_RejectsInvalidExpression(t *testing.T) {
	s := NewService(time.UTC, func(ctx context.Context, now time.Time) (models.Ranking, error) {
		return models.Ranking{}, nil
	}, arbor.NewLogger())

	err := s.Start([]string{"40 3 * * 1-5", "not a cron"})
	assert.Error(t, err)
	assert.False(t, s.Status().Running)
	assert.Equal(t, 0, s.Status().Entries)

	assert.Error(t, s.Start(nil))
}

func TestStart_ReportsNextRun(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := NewService(loc, func(ctx context.Context, now time.Time) (models.Ranking, error) {
		return models.Ranking{}, nil
	}, arbor.NewLogger())

	require.NoError(t, s.Start([]string{"40 3 * * 1-5", "10 4 * * 1-5"}))
	defer s.Stop()

	status := s.Status()
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.Entries)
	require.NotNil(t, status.NextRun)
	next := status.NextRun.In(loc)
	assert.Contains(t, []int{3, 4}, next.Hour())

	assert.Error(t, s.Start([]string{"* * * * *"}))
}

func TestTriggerNow_RecordsStatus(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 8, 10, 0, 0, time.UTC)
	s := NewService(time.UTC, func(ctx context.Context, now time.Time) (models.Ranking, error) {
		assert.Equal(t, fixed, now)
		return models.Ranking{
			RunID:      "run-1",
			Phase:      models.PhaseLive,
			Candidates: []models.ScoredCandidate{{}, {}},
		}, nil
	}, arbor.NewLogger())
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.TriggerNow(context.Background()))

	status := s.Status()
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.Equal(t, models.PhaseLive, status.LastPhase)
	assert.Equal(t, 2, status.LastCandidates)
	assert.Empty(t, status.LastError)
	assert.False(t, status.InProgress)
}

func TestTriggerNow_RecordsErrorsAndPanics(t *testing.T) {
	calls := 0
	s := NewService(time.UTC, func(ctx context.Context, now time.Time) (models.Ranking, error) {
		calls++
		if calls == 1 {
			return models.Ranking{}, errors.New("sink failed")
		}
		panic("unexpected")
	}, arbor.NewLogger())

	assert.Error(t, s.TriggerNow(context.Background()))
	assert.Equal(t, "sink failed", s.Status().LastError)

	assert.Error(t, s.TriggerNow(context.Background()))
	assert.Contains(t, s.Status().LastError, "unexpected")
	assert.Equal(t, 2, s.Status().Runs)
}

func TestTriggerNow_SkipsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	s := NewService(time.UTC, func(ctx context.Context, now time.Time) (models.Ranking, error) {
		close(started)
		<-release
		return models.Ranking{}, nil
	}, arbor.NewLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.TriggerNow(context.Background())
	}()

	<-started
	assert.True(t, s.Status().InProgress)
	assert.Error(t, s.TriggerNow(context.Background()))
	close(release)
	wg.Wait()

	status := s.Status()
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, 1, status.Skipped)
}
