package audit

import (
	"context"
	"sync"
	"time"

	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// insertTimeout bounds one sink write so a slow database cannot stall the
// drain goroutine forever.
const insertTimeout = 5 * time.Second

// Sink persists audit entries. persistence.GormAuditRepository satisfies it.
type Sink interface {
	Insert(ctx context.Context, entry shared.AuditEntry) error
}

// Recorder is an asynchronous shared.AuditRecorder. Record never blocks the
// caller: entries go into a bounded buffer and a background goroutine drains
// them into the sink. When the buffer is full the entry is dropped and
// counted, because audit must never stall a money-moving path.
type Recorder struct {
	sink    Sink
	metrics *metrics.DashboardMetrics
	logger  *zap.Logger

	entries chan shared.AuditEntry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRecorder creates an audit recorder with the given buffer size
func NewRecorder(sink Sink, bufferSize int, m *metrics.DashboardMetrics, logger *zap.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Recorder{
		sink:    sink,
		metrics: m,
		logger:  logger,
		entries: make(chan shared.AuditEntry, bufferSize),
	}
}

// Start launches the drain goroutine
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go r.drain(ctx)

	r.logger.Info("audit recorder started", zap.Int("buffer_size", cap(r.entries)))
}

// Stop flushes buffered entries and stops the drain goroutine
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false

	r.cancel()
	r.wg.Wait()

	r.logger.Info("audit recorder stopped")
}

// Record implements shared.AuditRecorder. It never blocks: when the buffer
// is full the entry is dropped and the drop is counted.
func (r *Recorder) Record(ctx context.Context, entry shared.AuditEntry) {
	select {
	case r.entries <- entry:
	default:
		r.metrics.IncAuditDropped()
		r.logger.Warn("audit buffer full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("correlation_id", entry.CorrelationID))
	}
}

func (r *Recorder) drain(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.entries:
			r.persist(entry)
		case <-ctx.Done():
			// Flush what is already buffered before exiting
			for {
				select {
				case entry := <-r.entries:
					r.persist(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(entry shared.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := r.sink.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to persist audit entry",
			zap.String("action", entry.Action),
			zap.String("correlation_id", entry.CorrelationID),
			zap.Error(err))
	}
}
