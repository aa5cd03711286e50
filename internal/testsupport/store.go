package testsupport

import (
	"context"
	"testing"
	"time"

	"barcoded/internal/config"
	"barcoded/internal/history"
)

// MustOpenHistory opens the journal configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddRecord appends a record with the given outcome and age.
func AddRecord(t testing.TB, store *history.Store, data string, outcome history.Outcome, age time.Duration) history.Record {
	t.Helper()

	rec := history.Record{
		RequestID: "req-" + data,
		TargetDir: "/tmp/out",
		Data:      data,
		Name:      data,
		Outcome:   outcome,
		Duration:  12 * time.Millisecond,
		CreatedAt: time.Now().UTC().Add(-age),
	}
	if outcome == history.OutcomeSuccess {
		rec.OutputPath = "/tmp/out/" + data + ".jpg"
	}
	if err := store.Record(context.Background(), &rec); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return rec
}
