package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat-go/internal/adapters/retrieval"
)

// defaultReindexTimeout leaves room for a full rebuild of a large document set.
const defaultReindexTimeout = 10 * time.Minute

var reindexTimeout time.Duration

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Ask the retrieval service to rebuild its document index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReindex(cmd.Context(), cmd.OutOrStdout(), cfg.Retrieval.URL, reindexTimeout)
	},
}

func init() {
	reindexCmd.Flags().DurationVar(&reindexTimeout, "timeout", defaultReindexTimeout,
		"how long to wait for the retrieval service to finish reindexing")
}

func runReindex(ctx context.Context, w io.Writer, serviceURL string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", timeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := retrieval.NewHTTPRetriever(serviceURL, nil)
	if err := r.Reindex(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Fprintln(w, color.GreenString("Reindex requested at %s", serviceURL))
	return nil
}
