package observability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hazyhaar/sf6scout/dbopen"
)

func setupObsDB(t *testing.T) *sql.DB {
	t.Helper()
	return dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
}

func TestInit_Idempotent(t *testing.T) {
	db := setupObsDB(t)
	if err := Init(db); err != nil {
		t.Fatal(err)
	}
	var count int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='operation_metrics'").Scan(&count)
	if count != 1 {
		t.Fatal("operation_metrics not found")
	}
}

func TestMetricsManager_RecordAndQuery(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	defer mm.Close()
	ctx := context.Background()

	mm.RecordDuration(MetricOperationMs, 1500*time.Millisecond, map[string]string{"op": "stats", "outcome": "ok"})
	mm.RecordSimple(MetricRecordsCount, 26, "count")
	mm.Flush()

	metrics, err := mm.Query(ctx, MetricOperationMs, nil, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 {
		t.Fatalf("operation count: got %d", len(metrics))
	}
	if metrics[0].Value != 1500 {
		t.Fatalf("value: got %f", metrics[0].Value)
	}
	if metrics[0].Labels["op"] != "stats" || metrics[0].Unit != "milliseconds" {
		t.Fatalf("metric: %+v", metrics[0])
	}

	all, err := mm.Query(ctx, "", nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("all: got %d", len(all))
	}
}

func TestMetricsManager_FlushOnFullBuffer(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 2, time.Hour, nil)
	defer mm.Close()

	mm.RecordSimple("a", 1, "count")
	mm.RecordSimple("b", 2, "count")

	var n int
	db.QueryRow("SELECT COUNT(*) FROM operation_metrics").Scan(&n)
	if n != 2 {
		t.Fatalf("rows after full buffer: %d", n)
	}
}

func TestMetricsManager_CloseFlushes(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	mm.RecordSimple("x", 1, "count")
	if err := mm.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mm.Close(); err != nil {
		t.Fatal("second close:", err)
	}
	mm.RecordSimple("dropped", 1, "count")

	var n int
	db.QueryRow("SELECT COUNT(*) FROM operation_metrics").Scan(&n)
	if n != 1 {
		t.Fatalf("rows after close: %d", n)
	}
}

func TestMetricsManager_QueryWithTimeRange(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	defer mm.Close()

	now := time.Now()
	mm.Record(&Metric{Name: "m", Timestamp: now.Add(-2 * time.Hour), Value: 1})
	mm.Record(&Metric{Name: "m", Timestamp: now, Value: 2})
	mm.Flush()

	since := now.Add(-time.Hour)
	got, err := mm.Query(context.Background(), "m", &since, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != 2 {
		t.Fatalf("range query: %+v", got)
	}
}

func TestMetricsManager_Cleanup(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	defer mm.Close()

	mm.Record(&Metric{Name: "old", Timestamp: time.Now().Add(-48 * time.Hour), Value: 1})
	mm.Record(&Metric{Name: "new", Timestamp: time.Now(), Value: 1})
	mm.Flush()

	n, err := mm.Cleanup(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted: %d", n)
	}
}

func TestSampleOnce(t *testing.T) {
	db := setupObsDB(t)
	mm := NewMetricsManager(db, 100, time.Hour, nil)
	defer mm.Close()

	mm.sampleOnce(map[string]Gauge{MetricSessionsActive: func() float64 { return 3 }})
	mm.Flush()

	got, err := mm.Query(context.Background(), MetricSessionsActive, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != 3 {
		t.Fatalf("sessions gauge: %+v", got)
	}
	goroutines, _ := mm.Query(context.Background(), MetricGoroutinesCount, nil, nil, 0)
	if len(goroutines) != 1 || goroutines[0].Value < 1 {
		t.Fatalf("goroutines: %+v", goroutines)
	}
}
