// Package eval replays a fixed question/expected-answer dataset against the
// gateway's /ask endpoint and records per-case results.
package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Case is one immutable dataset entry, loaded once and never mutated.
type Case struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// LoadDataset reads a newline-delimited JSON dataset wholesale into memory,
// preserving file order. Blank lines are skipped; a malformed line is a load
// error naming the line number.
func LoadDataset(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var cases []Case
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c Case
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("dataset %s line %d: %w", path, lineNo, err)
		}
		if c.Input == "" {
			return nil, fmt.Errorf("dataset %s line %d: input is required", path, lineNo)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return cases, nil
}
