package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicaid-labs/civicaid/internal/eval"
)

func evalCmd() *cobra.Command {
	var (
		datasetPath string
		endpointURL string
		authToken   string
		timeoutSec  int
		concurrency int
		jsonOutput  bool
		storePath   string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Replay the eval dataset against a running gateway",
		Long: `Replay a JSONL dataset of question/expected-answer pairs against the
/ask endpoint and report per-case results. A failed call is recorded for
that case and the run continues over the rest of the dataset.

Examples:
  civicaid eval
  civicaid eval --dataset eval_dataset.jsonl --url http://127.0.0.1:8000/ask
  civicaid eval --concurrency 4 --store runs.db
  civicaid eval --json > results.json`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runEval(cmd, datasetPath, endpointURL, authToken, timeoutSec, concurrency, jsonOutput, storePath); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "eval_dataset.jsonl", "path to JSONL dataset")
	cmd.Flags().StringVar(&endpointURL, "url", "http://127.0.0.1:8000/ask", "ask endpoint URL")
	cmd.Flags().StringVar(&authToken, "token", os.Getenv("CIVICAID_AUTH_TOKEN"), "bearer token for the gateway")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 60, "per-case request timeout in seconds")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "parallel requests (1 = strictly sequential)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output raw results as JSON")
	cmd.Flags().StringVar(&storePath, "store", "", "SQLite path to persist this run (optional)")

	return cmd
}

func runEval(cmd *cobra.Command, datasetPath, endpointURL, authToken string, timeoutSec, concurrency int, jsonOutput bool, storePath string) error {
	cases, err := eval.LoadDataset(datasetPath)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("dataset %s is empty", datasetPath)
	}

	slog.Info("eval run starting", "dataset", datasetPath, "cases", len(cases), "url", endpointURL, "concurrency", concurrency)

	runner := eval.NewRunner(endpointURL, eval.RunnerOptions{
		AuthToken:   authToken,
		Timeout:     time.Duration(timeoutSec) * time.Second,
		Concurrency: concurrency,
	})
	results := runner.Run(cmd.Context(), cases)

	if jsonOutput {
		if err := eval.WriteJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		eval.WriteReport(os.Stdout, results)
	}

	if storePath != "" {
		store, err := eval.OpenRunStore(storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.SaveRun(endpointURL, datasetPath, results)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Run saved as %s\n", runID)
	}

	return nil
}
