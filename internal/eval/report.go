package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const reportPreviewLen = 60

// WriteReport writes a human-readable per-case table plus a summary line.
// Failed cases are listed, never omitted.
func WriteReport(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tLATENCY\tINPUT\tACTUAL")
	errCount := 0
	for i, r := range results {
		status := "ok"
		detail := preview(r.ActualOutput)
		if r.Failed() {
			errCount++
			status = "ERROR"
			detail = preview(r.Err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%dms\t%s\t%s\n", i+1, status, r.LatencyMS, preview(r.Input), detail)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d cases, %d answered, %d errors\n", len(results), len(results)-errCount, errCount)
}

// WriteJSON writes the raw results as a JSON array for downstream comparison
// tooling. Always an array, even with no results.
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) > reportPreviewLen {
		return s[:reportPreviewLen] + "..."
	}
	return s
}
