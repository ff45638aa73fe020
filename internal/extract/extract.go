// Package extract turns fetched page content into raw entity and
// relationship records. Each page kind has an ordered list of strategies;
// the first strategy yielding at least one record wins, and a page no
// strategy understands is skipped with a recorded failure rather than
// aborting the run.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// ExtractionError marks a page whose structure matched no strategy.
type ExtractionError struct {
	PageID string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for page %s: %s", e.PageID, e.Reason)
}

// Strategy is one way of reading a page shape. Strategies are pure over
// the parsed document: no lookups, no identity decisions, no shared state.
type Strategy interface {
	// Name identifies the strategy in logs and failure reasons.
	Name() string
	// Extract returns zero or more records from the document. An empty
	// result means the page did not match this strategy's shape.
	Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord
}

// Extractor dispatches pages to the strategies registered for their kind.
type Extractor struct {
	registry   *schema.Registry
	strategies map[schemas.PageKind][]Strategy
	workers    int
	logger     *zap.Logger
}

// NewExtractor builds an extractor with the default strategy set.
func NewExtractor(reg *schema.Registry, workers int, logger *zap.Logger) *Extractor {
	if workers <= 0 {
		workers = 1
	}
	e := &Extractor{
		registry:   reg,
		strategies: make(map[schemas.PageKind][]Strategy),
		workers:    workers,
		logger:     logger.Named("extractor"),
	}

	// Priority order per kind: the most specific shape first.
	e.Register(schemas.PageKindOrganization, &organizationStrategy{reg: reg})
	e.Register(schemas.PageKindPerson, &personStrategy{reg: reg})
	e.Register(schemas.PageKindStaffList, &staffListStrategy{reg: reg})
	e.Register(schemas.PageKindProgram, &programStrategy{reg: reg})
	e.Register(schemas.PageKindCourse, &courseTableStrategy{reg: reg})
	e.Register(schemas.PageKindCourse, &courseHeadingStrategy{reg: reg})
	e.Register(schemas.PageKindPosition, &positionStrategy{reg: reg})
	e.Register(schemas.PageKindProject, &projectStrategy{reg: reg})
	return e
}

// Register appends a strategy to the priority list for a page kind.
func (e *Extractor) Register(kind schemas.PageKind, s Strategy) {
	e.strategies[kind] = append(e.strategies[kind], s)
}

// ExtractPage runs the strategy list for one page. The first strategy
// producing records wins; results from different strategies are never
// merged for a single page.
func (e *Extractor) ExtractPage(page schemas.PageDocument) ([]schemas.RawRecord, error) {
	strategies, ok := e.strategies[page.Kind]
	if !ok || len(strategies) == 0 {
		return nil, &ExtractionError{PageID: page.ID, Reason: fmt.Sprintf("no strategy registered for page kind %q", page.Kind)}
	}

	doc, err := htmlquery.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &ExtractionError{PageID: page.ID, Reason: fmt.Sprintf("unparseable HTML: %v", err)}
	}

	for _, s := range strategies {
		records := s.Extract(page, doc)
		if len(records) == 0 {
			continue
		}
		for i := range records {
			records[i].PageID = page.ID
			records[i].FetchedAt = page.FetchedAt
			records[i].Attributes = coerceAttributes(e.registry, records[i].Attributes)
		}
		e.logger.Debug("page extracted",
			zap.String("page", page.ID),
			zap.String("strategy", s.Name()),
			zap.Int("records", len(records)))
		return records, nil
	}
	return nil, &ExtractionError{PageID: page.ID, Reason: "no strategy matched the page structure"}
}

// Result aggregates a full extraction pass.
type Result struct {
	// Records sorted by page ID; order within a page follows the strategy.
	Records []schemas.RawRecord
	// Failures lists skipped pages.
	Failures []schemas.ExtractionFailure
}

// ExtractAll processes pages with a bounded worker pool. Workers append to
// local buffers that are merged and sorted afterwards, so no lock guards
// the hot path and output order is independent of scheduling.
func (e *Extractor) ExtractAll(ctx context.Context, pages []schemas.PageDocument) (*Result, error) {
	type bucket struct {
		records  []schemas.RawRecord
		failures []schemas.ExtractionFailure
	}
	buckets := make([]bucket, e.workers)
	jobs := make(chan schemas.PageDocument)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < e.workers; w++ {
		b := &buckets[w]
		g.Go(func() error {
			for page := range jobs {
				records, err := e.ExtractPage(page)
				if err != nil {
					var exErr *ExtractionError
					if errors.As(err, &exErr) {
						b.failures = append(b.failures, schemas.ExtractionFailure{PageID: exErr.PageID, Reason: exErr.Reason})
						e.logger.Warn("page skipped", zap.String("page", exErr.PageID), zap.String("reason", exErr.Reason))
						continue
					}
					return err
				}
				b.records = append(b.records, records...)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for _, page := range pages {
			select {
			case jobs <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, b := range buckets {
		res.Records = append(res.Records, b.records...)
		res.Failures = append(res.Failures, b.failures...)
	}
	sort.SliceStable(res.Records, func(i, j int) bool { return res.Records[i].PageID < res.Records[j].PageID })
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].PageID < res.Failures[j].PageID })

	e.logger.Info("extraction complete",
		zap.Int("pages", len(pages)),
		zap.Int("records", len(res.Records)),
		zap.Int("failed", len(res.Failures)))
	return res, nil
}
