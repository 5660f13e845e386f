package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDataset_PreservesOrder(t *testing.T) {
	path := writeDataset(t, `{"input": "q1", "expected_output": "a1"}
{"input": "q2", "expected_output": "a2"}
{"input": "q3", "expected_output": "a3"}
`)
	cases, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(cases))
	}
	for i, want := range []string{"q1", "q2", "q3"} {
		if cases[i].Input != want {
			t.Errorf("case %d: expected %q, got %q", i, want, cases[i].Input)
		}
	}
	if cases[1].ExpectedOutput != "a2" {
		t.Errorf("expected_output not loaded: %q", cases[1].ExpectedOutput)
	}
}

func TestLoadDataset_SkipsBlankLines(t *testing.T) {
	path := writeDataset(t, `{"input": "q1", "expected_output": "a1"}

{"input": "q2", "expected_output": "a2"}
`)
	cases, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(cases))
	}
}

func TestLoadDataset_MalformedLineNamesLineNumber(t *testing.T) {
	path := writeDataset(t, `{"input": "q1", "expected_output": "a1"}
{not json}
`)
	_, err := LoadDataset(path)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name line 2: %v", err)
	}
}

func TestLoadDataset_EmptyInputRejected(t *testing.T) {
	path := writeDataset(t, `{"input": "", "expected_output": "a1"}
`)
	_, err := LoadDataset(path)
	if err == nil || !strings.Contains(err.Error(), "input is required") {
		t.Fatalf("expected input-required error, got %v", err)
	}
}

func TestLoadDataset_MissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
