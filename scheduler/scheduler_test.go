package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeLease is a single shared lease with a manual clock
type fakeLease struct {
	mu       sync.Mutex
	now      time.Time
	held     bool
	until    time.Time // zero while held without an expiry
	err      error
	holds    []time.Duration
	released []string
}

func (l *fakeLease) Acquire(ctx context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.held && (l.until.IsZero() || l.now.Before(l.until)) {
		return "", false, nil
	}
	l.held = true
	l.until = time.Time{}
	return "token-1", true, nil
}

func (l *fakeLease) Hold(ctx context.Context, token string, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds = append(l.holds, d)
	l.until = l.now.Add(d)
	return nil
}

func (l *fakeLease) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released = append(l.released, token)
	return nil
}

func (l *fakeLease) advance(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = l.now.Add(d)
}

func committed() *models.CycleResult {
	return &models.CycleResult{Cycle: &models.SettlementCycle{}}
}

func TestScheduler_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("runs cycle without lease", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(committed(), nil).Once()

		New(ctx, settlement, time.Minute, nil).Tick(ctx)

		settlement.AssertExpectations(t)
	})

	t.Run("holds lease for the rest of the period after committed cycle", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(committed(), nil).Once()
		lease := &fakeLease{}
		s := New(ctx, settlement, time.Minute, lease)

		s.Tick(ctx)
		s.Tick(ctx)

		settlement.AssertNumberOfCalls(t, "RunCycle", 1)
		assert.True(t, lease.held)
		assert.Empty(t, lease.released)
		require.Len(t, lease.holds, 1)
		assert.LessOrEqual(t, lease.holds[0], 59*time.Second)
		assert.Greater(t, lease.holds[0], 58*time.Second)
	})

	t.Run("releases lease after failed cycle", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(nil, service.ErrQueueExhausted)
		lease := &fakeLease{}

		New(ctx, settlement, time.Minute, lease).Tick(ctx)

		assert.False(t, lease.held)
		assert.Equal(t, []string{"token-1"}, lease.released)
	})

	t.Run("skips when another replica holds the lease", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		lease := &fakeLease{held: true}

		New(ctx, settlement, time.Minute, lease).Tick(ctx)

		settlement.AssertNotCalled(t, "RunCycle", mock.Anything)
	})

	t.Run("settles when the lease store is down", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(nil, errors.New("boom"))
		lease := &fakeLease{err: errors.New("connection refused")}

		New(ctx, settlement, time.Minute, lease).Tick(ctx)

		settlement.AssertExpectations(t)
		assert.Empty(t, lease.released)
	})
}

func TestScheduler_ReplicasShareOnePeriod(t *testing.T) {
	ctx := context.Background()
	lease := &fakeLease{now: time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC)}

	settlementA := new(service.MockSettlementService)
	settlementA.On("RunCycle", ctx).Return(committed(), nil)
	settlementB := new(service.MockSettlementService)
	settlementB.On("RunCycle", ctx).Return(committed(), nil)

	replicaA := New(ctx, settlementA, time.Minute, lease)
	replicaB := New(ctx, settlementB, time.Minute, lease)

	replicaA.Tick(ctx)
	lease.advance(50 * time.Second)
	replicaB.Tick(ctx)

	settlementA.AssertNumberOfCalls(t, "RunCycle", 1)
	settlementB.AssertNotCalled(t, "RunCycle", mock.Anything)

	lease.advance(10 * time.Second)
	replicaB.Tick(ctx)

	settlementB.AssertNumberOfCalls(t, "RunCycle", 1)
}

func TestScheduler_RunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the committed cycle", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(committed(), nil).Once()

		result, err := New(ctx, settlement, time.Minute, &fakeLease{}).RunNow(ctx)

		require.NoError(t, err)
		assert.NotNil(t, result.Cycle)
	})

	t.Run("refuses while the period is claimed", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		lease := &fakeLease{held: true}

		result, err := New(ctx, settlement, time.Minute, lease).RunNow(ctx)

		assert.ErrorIs(t, err, service.ErrCycleTooSoon)
		assert.Nil(t, result)
		settlement.AssertNotCalled(t, "RunCycle", mock.Anything)
	})

	t.Run("passes through settlement refusal and frees the lease", func(t *testing.T) {
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", ctx).Return(nil, service.ErrCycleTooSoon)
		lease := &fakeLease{}

		_, err := New(ctx, settlement, time.Minute, lease).RunNow(ctx)

		assert.ErrorIs(t, err, service.ErrCycleTooSoon)
		assert.False(t, lease.held)
		assert.Empty(t, lease.holds)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s := New(ctx, new(service.MockSettlementService), 0, nil)
		assert.Error(t, s.Start())
	})

	t.Run("ticks on the interval", func(t *testing.T) {
		ticked := make(chan struct{}, 1)
		settlement := new(service.MockSettlementService)
		settlement.On("RunCycle", mock.Anything).Return(committed(), nil).Run(func(mock.Arguments) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		})
		s := New(ctx, settlement, time.Second, nil)

		require.NoError(t, s.Start())
		select {
		case <-ticked:
		case <-time.After(3 * time.Second):
			t.Fatal("settlement was not scheduled")
		}
		s.Stop()
	})
}
