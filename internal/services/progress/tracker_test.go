package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) PollStatus(ctx context.Context, runID string) (*apify.RunStatus, error) {
	args := m.Called(ctx, runID)
	if s := args.Get(0); s != nil {
		return s.(*apify.RunStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSource) CountResults(ctx context.Context, runID string) (int, error) {
	args := m.Called(ctx, runID)
	return args.Int(0), args.Error(1)
}

func TestTracker_Running(t *testing.T) {
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		elapsed   time.Duration
		wantPct   float64
		formatted string
	}{
		{"just started", 0, 0, "1m 30s"},
		{"halfway", 45 * time.Second, 50, "45s"},
		{"past estimate is capped", 10 * time.Minute, RunningCap, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(mockSource)
			src.On("PollStatus", mock.Anything, "run-1").
				Return(&apify.RunStatus{ID: "run-1", Status: "RUNNING", StartedAt: &started}, nil)

			tracker := NewTracker(src, WithClock(func() time.Time { return started.Add(tt.elapsed) }))
			p := tracker.GetProgress(context.Background(), "run-1")

			assert.Equal(t, "RUNNING", p.Status)
			assert.InDelta(t, tt.wantPct, p.ProgressPercentage, 0.001)
			assert.True(t, p.Estimated)
			assert.Equal(t, tt.formatted, p.TimeRemainingFormatted)
			assert.Less(t, p.ProgressPercentage, 100.0)
			src.AssertNotCalled(t, "CountResults", mock.Anything, mock.Anything)
		})
	}
}

func TestTracker_Succeeded(t *testing.T) {
	src := new(mockSource)
	src.On("PollStatus", mock.Anything, "run-1").Return(&apify.RunStatus{ID: "run-1", Status: "SUCCEEDED"}, nil)
	src.On("CountResults", mock.Anything, "run-1").Return(3, nil)

	p := NewTracker(src).GetProgress(context.Background(), "run-1")
	assert.Equal(t, 100.0, p.ProgressPercentage)
	assert.Equal(t, 3, p.ItemsProcessed)
	assert.False(t, p.Estimated)
}

func TestTracker_SucceededCountFailureIsIgnored(t *testing.T) {
	src := new(mockSource)
	src.On("PollStatus", mock.Anything, "run-1").Return(&apify.RunStatus{ID: "run-1", Status: "SUCCEEDED"}, nil)
	src.On("CountResults", mock.Anything, "run-1").Return(0, errors.New("boom"))

	p := NewTracker(src).GetProgress(context.Background(), "run-1")
	assert.Equal(t, 100.0, p.ProgressPercentage)
	assert.Zero(t, p.ItemsProcessed)
	assert.Empty(t, p.Error)
}

func TestTracker_TerminalFailures(t *testing.T) {
	for _, status := range []string{"FAILED", "ABORTED", "TIMED-OUT"} {
		t.Run(status, func(t *testing.T) {
			src := new(mockSource)
			src.On("PollStatus", mock.Anything, "run-1").Return(&apify.RunStatus{ID: "run-1", Status: status}, nil)

			p := NewTracker(src).GetProgress(context.Background(), "run-1")
			assert.Zero(t, p.ProgressPercentage)
			assert.Equal(t, StatusMessage(status), p.StatusMessage)
			assert.NotEqual(t, unknownStatusMessage, p.StatusMessage)
		})
	}
}

func TestTracker_LookupErrorNeverFails(t *testing.T) {
	src := new(mockSource)
	src.On("PollStatus", mock.Anything, "run-1").Return(nil, errors.New("connection reset"))

	p := NewTracker(src).GetProgress(context.Background(), "run-1")
	require.Equal(t, StatusError, p.Status)
	assert.Zero(t, p.ProgressPercentage)
	assert.Equal(t, "run-1", p.RunID)
	assert.Contains(t, p.Error, "connection reset")
}

func TestStatusMessage_Unknown(t *testing.T) {
	assert.Equal(t, unknownStatusMessage, StatusMessage("SOMETHING-NEW"))
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "59s", FormatRemaining(59*time.Second))
	assert.Equal(t, "60s", FormatRemaining(60*time.Second))
	assert.Equal(t, "1m 1s", FormatRemaining(61*time.Second))
	assert.Equal(t, "2m 5s", FormatRemaining(125*time.Second))
}
