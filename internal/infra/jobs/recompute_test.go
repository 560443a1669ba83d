package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/middleware"
)

type busMock struct {
	mock.Mock
}

func (m *busMock) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0), args.Error(1)
}

var asSystem = mock.MatchedBy(func(ctx context.Context) bool {
	return middleware.PrincipalFrom(ctx) == middleware.PrincipalSystem
})

func TestRecomputeJobDispatchesAsSystem(t *testing.T) {
	bus := &busMock{}
	bus.On("Dispatch", asSystem, bookings.RecomputeAllCommand{Force: true}).
		Return(&dto.RecomputeSummary{Scanned: 2, Unchanged: 1, Updated: 1}, nil).Once()
	job := &RecomputeJob{Bus: bus, Force: true}

	summary, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	bus.AssertExpectations(t)
}

func TestRecomputeJobRunSwallowsErrors(t *testing.T) {
	bus := &busMock{}
	bus.On("Dispatch", asSystem, bookings.RecomputeAllCommand{}).
		Return(nil, errors.New("mongo down")).Once()
	job := &RecomputeJob{Bus: bus, Timeout: time.Second}

	assert.NotPanics(t, job.Run)
	bus.AssertExpectations(t)
}

func TestSchedulerRejectsBadSpecs(t *testing.T) {
	s := NewScheduler(nil)
	_, err := s.Add("", &RecomputeJob{})
	assert.ErrorIs(t, err, ErrEmptySchedule)
	_, err = s.Add("every tuesday", &RecomputeJob{})
	assert.Error(t, err)
}

func TestSchedulerRunsJobs(t *testing.T) {
	fired := make(chan struct{}, 1)
	bus := &busMock{}
	bus.On("Dispatch", asSystem, bookings.RecomputeAllCommand{}).
		Run(func(mock.Arguments) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}).
		Return(&dto.RecomputeSummary{}, nil)
	s := NewScheduler(nil)
	_, err := s.Add("@every 1s", &RecomputeJob{Bus: bus})
	require.NoError(t, err)
	require.Len(t, s.Entries(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
