package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/config"
	"github.com/mhartwig22/campuskg/internal/observability"
	"github.com/mhartwig22/campuskg/internal/store"
)

var persistInput string

// persistCmd loads a graph export and writes it to PostgreSQL. Persistence
// is deliberately separate from building: the pipeline completes without
// the database being reachable.
var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Write a graph export into PostgreSQL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		cfg := config.Get()

		if cfg.Postgres.URL == "" {
			return fmt.Errorf("postgres.url is not configured")
		}

		data, err := os.ReadFile(persistInput)
		if err != nil {
			return fmt.Errorf("reading export: %w", err)
		}
		var export schemas.GraphExport
		if err := json.Unmarshal(data, &export); err != nil {
			return fmt.Errorf("parsing export %s: %w", persistInput, err)
		}

		pool, err := store.Connect(cmd.Context(), cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		st := store.New(pool, logger)
		if err := st.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		if err := st.PersistGraph(cmd.Context(), export); err != nil {
			return err
		}

		logger.Info("persist complete",
			zap.String("run_id", export.RunID),
			zap.Int("nodes", len(export.Entities)),
			zap.Int("edges", len(export.Edges)))
		return nil
	},
}

func init() {
	persistCmd.Flags().StringVarP(&persistInput, "input", "i", "", "graph export JSON written by build --export (required)")
	_ = persistCmd.MarkFlagRequired("input")
}
