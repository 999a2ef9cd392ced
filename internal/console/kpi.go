package console

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

// KPI metric names.
const (
	MetricTotal = "total"
)

// KPIMetrics lists the counters in display order.
var KPIMetrics = []string{MetricTotal, string(models.RoleStudent), string(models.RoleTeacher), string(models.RoleAdmin)}

// KPISink receives counter updates. Calls may arrive from several goroutines.
type KPISink interface {
	SetKPI(metric string, value int)
}

type accountCounter interface {
	CountAccounts(ctx context.Context, role string) (int, error)
}

// KPIBoard refreshes the account counters concurrently. A failing counter
// leaves the sink's previous value in place.
type KPIBoard struct {
	backend accountCounter
	sink    KPISink
	logger  *zap.Logger
}

// NewKPIBoard constructs a board.
func NewKPIBoard(backend accountCounter, sink KPISink, logger *zap.Logger) *KPIBoard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPIBoard{backend: backend, sink: sink, logger: logger}
}

// Refresh runs one count per metric and waits for all of them. It returns the metrics that failed.
func (b *KPIBoard) Refresh(ctx context.Context) []string {
	if b == nil {
		return nil
	}
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, metric := range KPIMetrics {
		metric := metric
		wg.Add(1)
		go func() {
			defer wg.Done()
			role := metric
			if metric == MetricTotal {
				role = models.RoleFilterAll
			}
			count, err := b.backend.CountAccounts(ctx, role)
			if err != nil {
				b.logger.Warn("kpi counter failed", zap.String("metric", metric), zap.Error(err))
				mu.Lock()
				failed = append(failed, metric)
				mu.Unlock()
				return
			}
			b.sink.SetKPI(metric, count)
		}()
	}
	wg.Wait()
	return failed
}
