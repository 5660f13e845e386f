package eval

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunStore_SaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)

	results := []Result{
		{Input: "q1", ExpectedOutput: "a1", ActualOutput: "out1", LatencyMS: 10},
		{Input: "q2", ExpectedOutput: "a2", Err: "boom", Code: "EVAL_TRANSPORT", LatencyMS: 4},
	}

	runID, err := store.SaveRun("http://127.0.0.1:8000/ask", "eval_dataset.jsonl", results)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 results, got %d", len(loaded))
	}
	if loaded[0].Input != "q1" || loaded[1].Input != "q2" {
		t.Error("sequence order not preserved")
	}
	if loaded[1].Err != "boom" || loaded[1].Code != "EVAL_TRANSPORT" {
		t.Errorf("error marker lost: %+v", loaded[1])
	}
}

func TestRunStore_ListRuns(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveRun("http://a/ask", "d1.jsonl", []Result{{Input: "q"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveRun("http://b/ask", "d2.jsonl", []Result{{Input: "q", Err: "x"}}); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Total != 1 {
			t.Errorf("run %s: expected total 1, got %d", run.ID, run.Total)
		}
	}
}

func TestRunStore_LoadMissingRun(t *testing.T) {
	store := openTestStore(t)
	loaded, err := store.LoadRun("no-such-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected no results, got %d", len(loaded))
	}
}
