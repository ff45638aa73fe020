// Package pipeline wires the stages together: extraction over a worker
// pool, single-threaded resolution and synthesis, then validated
// serialization. A run is a single unit; per-page failures are reported,
// structural failures abort before anything is emitted.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/config"
	"github.com/mhartwig22/campuskg/internal/extract"
	"github.com/mhartwig22/campuskg/internal/graph"
	"github.com/mhartwig22/campuskg/internal/rdf"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
	"github.com/mhartwig22/campuskg/internal/synth"
)

// RunResult bundles everything a completed run produces.
type RunResult struct {
	Graph   *graph.Graph
	Export  schemas.GraphExport
	Triples []string
	Report  schemas.Report
}

// Pipeline owns the stage components for one or more runs over the same
// registry and configuration.
type Pipeline struct {
	registry    *schema.Registry
	extractor   *extract.Extractor
	resolver    *resolve.Resolver
	synthesizer *synth.Synthesizer
	serializer  *rdf.Serializer
	logger      *zap.Logger
}

// New builds a pipeline from the pipeline configuration. The registry is
// loaded and validated here; a malformed registry is fatal and nothing runs.
func New(cfg config.PipelineConfig, logger *zap.Logger) (*Pipeline, error) {
	reg, err := schema.Load(cfg.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("loading schema registry: %w", err)
	}
	if cfg.OntologyNS != "" {
		reg.OntologyNS = cfg.OntologyNS
	}
	if cfg.ResourceNS != "" {
		reg.ResourceNS = cfg.ResourceNS
	}

	return &Pipeline{
		registry:    reg,
		extractor:   extract.NewExtractor(reg, cfg.Workers, logger),
		resolver:    resolve.NewResolver(reg, cfg.UniversityName, logger),
		synthesizer: synth.NewSynthesizer(reg, logger),
		serializer:  rdf.NewSerializer(reg, logger),
		logger:      logger.Named("pipeline"),
	}, nil
}

// Registry exposes the validated registry, mainly for the CLI layer.
func (p *Pipeline) Registry() *schema.Registry { return p.registry }

// Run executes the full pass over the supplied pages.
func (p *Pipeline) Run(ctx context.Context, pages []schemas.PageDocument) (*RunResult, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	p.logger.Info("run started", zap.String("run_id", runID), zap.Int("pages", len(pages)))

	extracted, err := p.extractor.ExtractAll(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	resolved, err := p.resolver.Resolve(extracted.Records)
	if err != nil {
		return nil, fmt.Errorf("resolution: %w", err)
	}

	g, synthWarnings, err := p.synthesizer.Synthesize(resolved)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	triples, violations, err := p.serializer.Serialize(g)
	if err != nil {
		return nil, fmt.Errorf("serialization: %w", err)
	}

	entities := g.Entities()
	edges := g.Edges()
	warnings := append(append([]string{}, resolved.Warnings...), synthWarnings...)

	result := &RunResult{
		Graph: g,
		Export: schemas.GraphExport{
			RunID:    runID,
			Entities: entities,
			Edges:    edges,
		},
		Triples: triples,
		Report: schemas.Report{
			RunID:              runID,
			StartedAt:          started,
			FinishedAt:         time.Now().UTC(),
			PagesTotal:         len(pages),
			PagesFailed:        len(extracted.Failures),
			RecordsExtracted:   len(extracted.Records),
			EntitiesResolved:   len(entities),
			StubsCreated:       resolved.StubsCreated,
			RelationshipsFinal: len(edges),
			TriplesEmitted:     len(triples),
			ExtractionFailures: extracted.Failures,
			Warnings:           warnings,
			Violations:         violations,
		},
	}

	p.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("entities", len(entities)),
		zap.Int("relationships", len(edges)),
		zap.Int("triples", len(triples)),
		zap.Int("violations", len(violations)),
		zap.Duration("took", result.Report.FinishedAt.Sub(started)))
	return result, nil
}
