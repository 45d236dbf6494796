package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corebank/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySink struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
	fail    bool
}

func (s *memorySink) Insert(ctx context.Context, entry shared.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func testEntry(correlationID string) shared.AuditEntry {
	return shared.AuditEntry{
		Actor:         "replay-scheduler",
		Action:        "reconciliation.replay",
		Summary:       "envelope passed",
		Level:         shared.AuditLevelInfo,
		Status:        shared.AuditStatusSuccess,
		CorrelationID: correlationID,
		OccurredAt:    time.Now(),
	}
}

func TestRecorder_DeliversEntries(t *testing.T) {
	sink := &memorySink{}
	recorder := NewRecorder(sink, 16, nil, zap.NewNop())
	recorder.Start()
	defer recorder.Stop()

	recorder.Record(context.Background(), testEntry("TRX-001"))
	recorder.Record(context.Background(), testEntry("TRX-002"))

	assert.Eventually(t, func() bool {
		return sink.count() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRecorder_FlushesOnStop(t *testing.T) {
	sink := &memorySink{}
	recorder := NewRecorder(sink, 16, nil, zap.NewNop())
	recorder.Start()

	for i := 0; i < 5; i++ {
		recorder.Record(context.Background(), testEntry("TRX-001"))
	}
	recorder.Stop()

	assert.Equal(t, 5, sink.count())
}

func TestRecorder_DropsWhenBufferFull(t *testing.T) {
	sink := &memorySink{}
	// Never started, so nothing drains the buffer
	recorder := NewRecorder(sink, 2, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		recorder.Record(context.Background(), testEntry("TRX-001"))
	}

	// The two buffered entries survive a start/stop cycle, the rest were dropped
	recorder.Start()
	recorder.Stop()
	assert.Equal(t, 2, sink.count())
}

func TestRecorder_SurvivesSinkFailures(t *testing.T) {
	sink := &memorySink{fail: true}
	recorder := NewRecorder(sink, 16, nil, zap.NewNop())
	recorder.Start()

	recorder.Record(context.Background(), testEntry("TRX-001"))
	recorder.Stop()

	assert.Equal(t, 0, sink.count())

	// A second start keeps working after earlier failures
	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()
	recorder.Start()
	recorder.Record(context.Background(), testEntry("TRX-002"))
	recorder.Stop()
	assert.Equal(t, 1, sink.count())
}

func TestRecorder_StartIsIdempotent(t *testing.T) {
	sink := &memorySink{}
	recorder := NewRecorder(sink, 16, nil, zap.NewNop())
	recorder.Start()
	recorder.Start()
	recorder.Stop()
	recorder.Stop()

	require.Equal(t, 0, sink.count())
}
