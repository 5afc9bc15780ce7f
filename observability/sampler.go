package observability

import (
	"context"
	"runtime"
	"time"
)

// Gauge reports a value at sampling time.
type Gauge func() float64

// SampleRuntime records goroutine count, heap allocation and every extra
// gauge each interval until ctx is done.
func (mm *MetricsManager) SampleRuntime(ctx context.Context, interval time.Duration, gauges map[string]Gauge) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mm.sampleOnce(gauges)
		}
	}
}

func (mm *MetricsManager) sampleOnce(gauges map[string]Gauge) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mm.RecordSimple(MetricGoroutinesCount, float64(runtime.NumGoroutine()), "count")
	mm.RecordSimple(MetricMemoryAllocMB, float64(ms.Alloc)/(1<<20), "megabytes")
	for name, g := range gauges {
		mm.RecordSimple(name, g(), "count")
	}
}
