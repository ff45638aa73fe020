package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/internal/config"
	"github.com/mhartwig22/campuskg/internal/observability"
	"github.com/mhartwig22/campuskg/internal/pipeline"
)

var (
	manifestPath string
	triplesOut   string
	exportOut    string
	reportOut    string
)

// buildCmd runs the full pipeline over a page manifest and writes the
// triple set, the graph export and the run report.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract, resolve and serialize the knowledge graph from crawled pages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		cfg := config.Get()

		pages, err := pipeline.LoadManifest(manifestPath)
		if err != nil {
			return err
		}

		p, err := pipeline.New(cfg.Pipeline, logger)
		if err != nil {
			return err
		}
		result, err := p.Run(cmd.Context(), pages)
		if err != nil {
			return err
		}

		if err := writeTriples(triplesOut, result.Triples); err != nil {
			return err
		}
		if exportOut != "" {
			if err := writeJSON(exportOut, result.Export); err != nil {
				return err
			}
		}
		if err := writeJSON(reportOut, result.Report); err != nil {
			return err
		}

		logger.Info("build complete",
			zap.String("triples", triplesOut),
			zap.String("report", reportOut),
			zap.Int("warnings", len(result.Report.Warnings)),
			zap.Int("violations", len(result.Report.Violations)))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "JSON page manifest produced by the crawler (required)")
	buildCmd.Flags().StringVarP(&triplesOut, "output", "o", "graph.nt", "output file for the N-Triples serialization")
	buildCmd.Flags().StringVar(&exportOut, "export", "", "optional output file for the graph export JSON")
	buildCmd.Flags().StringVar(&reportOut, "report", "report.json", "output file for the run report")
	_ = buildCmd.MarkFlagRequired("manifest")
}

func writeTriples(path string, triples []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	for _, t := range triples {
		if _, err := fmt.Fprintln(f, t); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return f.Sync()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
