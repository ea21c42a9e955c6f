package audit

import (
	"context"
	"testing"
	"time"

	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func TestRecordAndSummarize(t *testing.T) {
	s := inmemory.New()
	r := New(s)
	ctx := context.Background()
	now := time.Now()

	if err := r.Record(ctx, "A", "submit", "transaction", "t1", store.DecisionAllowed, "ok", now); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.Record(ctx, "A", "submit", "transaction", "t2", store.DecisionBlocked, "over limit", now); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary, err := r.Summarize(ctx, "A", now.Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Total != 2 || summary.Allowed != 1 || summary.Blocked != 1 {
		t.Errorf("summary = %+v, want total=2 allowed=1 blocked=1", summary)
	}
}

func TestExportCSVIncludesHeader(t *testing.T) {
	s := inmemory.New()
	r := New(s)
	ctx := context.Background()
	if err := r.Record(ctx, "A", "submit", "transaction", "t1", store.DecisionAllowed, "ok", time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	rows, err := r.ExportCSV(ctx, "A", 0)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (header + 1 entry)", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("header row = %v", rows[0])
	}
}
