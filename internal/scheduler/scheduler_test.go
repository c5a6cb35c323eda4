package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iyhunko/shopping-list/internal/engine"
	"github.com/iyhunko/shopping-list/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeList struct {
	refreshes  int
	resets     int
	confirmed  bool
	refreshErr error
}

func (f *fakeList) Refresh(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeList) ResetMonth(_ context.Context, confirm engine.Confirmer) (int, error) {
	f.resets++
	f.confirmed = confirm.Confirm(engine.ResetPrompt)
	return 3, nil
}

func TestNew_RegistersJobs(t *testing.T) {
	tests := []struct {
		name    string
		reset   string
		refresh string
		jobs    int
	}{
		{name: "none", jobs: 0},
		{name: "reset only", reset: "0 0 1 * *", jobs: 1},
		{name: "both", reset: "@monthly", refresh: "@every 5m", jobs: 2},
		{name: "seconds field", refresh: "*/30 * * * * *", jobs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := scheduler.New(context.Background(), &fakeList{}, tt.reset, tt.refresh)
			require.NoError(t, err)
			assert.Equal(t, tt.jobs, s.Jobs())
		})
	}
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := scheduler.New(context.Background(), &fakeList{}, "not a schedule", "")
	assert.ErrorContains(t, err, "invalid reset schedule")

	_, err = scheduler.New(context.Background(), &fakeList{}, "", "61 * * * *")
	assert.ErrorContains(t, err, "invalid refresh schedule")
}

func TestJobs(t *testing.T) {
	list := &fakeList{}
	s, err := scheduler.New(context.Background(), list, "@monthly", "@hourly")
	require.NoError(t, err)

	s.RunReset()
	s.RunRefresh()

	assert.Equal(t, 1, list.resets)
	assert.True(t, list.confirmed)
	assert.Equal(t, 1, list.refreshes)

	list.refreshErr = errors.New("store down")
	s.RunRefresh()
	assert.Equal(t, 2, list.refreshes)
}

func TestStartStop(t *testing.T) {
	s, err := scheduler.New(context.Background(), &fakeList{}, "", "@every 1h")
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
