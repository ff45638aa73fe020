// Package synth assembles the final knowledge graph from resolved entities
// and relationships: it materializes inverse edges, expands partOf
// specializations and repairs the organizational hierarchy.
package synth

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/graph"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// UnaffiliatedName is the display name of the placeholder organization that
// adopts hierarchy-bearing entities unreachable from the University root.
const UnaffiliatedName = "Unaffiliated"

// affiliationPredicates are the person-to-organization edges that count as
// an existing affiliation; persons without any of them are attached to the
// University root directly.
var affiliationPredicates = []schemas.Predicate{
	schemas.PredMemberOf,
	schemas.PredWorksAt,
	schemas.PredAffiliatedWith,
	schemas.PredHeads,
}

// Synthesizer derives the complete graph from resolution output.
type Synthesizer struct {
	registry *schema.Registry
	logger   *zap.Logger
}

func NewSynthesizer(reg *schema.Registry, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{registry: reg, logger: logger.Named("synthesizer")}
}

// Synthesize builds the graph. Relationships with predicates unknown to the
// registry are dropped with a warning; everything else is installed along
// with its derived edges. The returned warnings are non-fatal.
func (s *Synthesizer) Synthesize(res *resolve.Result) (*graph.Graph, []string, error) {
	g := graph.New(s.logger)
	var warnings []string

	for _, e := range res.Entities {
		g.AddEntity(e)
	}

	for _, rel := range res.Relationships {
		pi, ok := s.registry.Predicate(rel.Predicate)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"relationship (%s, %s, %s): unknown predicate, dropped",
				rel.SubjectID, rel.Predicate, rel.ObjectID))
			continue
		}
		if err := g.AddEdge(rel); err != nil {
			return nil, nil, fmt.Errorf("installing %s edge: %w", rel.Predicate, err)
		}
		// Specialized containment also implies the generic pair.
		if pi.PartOfSpecialization {
			if err := g.AddEdge(schemas.Relationship{
				SubjectID: rel.SubjectID,
				Predicate: schemas.PredPartOf,
				ObjectID:  rel.ObjectID,
			}); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := s.completeInverses(g); err != nil {
		return nil, nil, err
	}
	s.attachLoosePersons(g, res.RootID)
	warnings = append(warnings, s.adoptOrphans(g, res.RootID)...)

	// Derived edges need inverses too.
	if err := s.completeInverses(g); err != nil {
		return nil, nil, err
	}

	nodes, edges := g.Size()
	s.logger.Info("graph synthesized",
		zap.Int("entities", nodes),
		zap.Int("relationships", edges),
		zap.Int("warnings", len(warnings)))
	return g, warnings, nil
}

// completeInverses adds the reverse edge for every relationship whose
// predicate declares an inverse. Extraction only ever supplies one
// direction; the other is an enforced invariant, not extractor discipline.
func (s *Synthesizer) completeInverses(g *graph.Graph) error {
	for _, rel := range g.Edges() {
		pi, ok := s.registry.Predicate(rel.Predicate)
		if !ok || pi.Inverse == "" {
			continue
		}
		reverse := schemas.Relationship{
			SubjectID: rel.ObjectID,
			Predicate: pi.Inverse,
			ObjectID:  rel.SubjectID,
		}
		if !g.HasEdge(reverse) {
			if err := g.AddEdge(reverse); err != nil {
				return fmt.Errorf("completing inverse of %s: %w", rel.Predicate, err)
			}
		}
	}
	return nil
}

// attachLoosePersons links persons with no affiliation edge directly to the
// University root, so every extracted person belongs to the institution.
func (s *Synthesizer) attachLoosePersons(g *graph.Graph, rootID string) {
	for _, e := range g.Entities() {
		if s.registry.RootOf(e.Type) != schemas.TypePerson || e.ID == rootID {
			continue
		}
		affiliated := false
		for _, p := range affiliationPredicates {
			if len(g.Outgoing(e.ID, p)) > 0 {
				affiliated = true
				break
			}
		}
		if !affiliated {
			_ = g.AddEdge(schemas.Relationship{
				SubjectID: e.ID,
				Predicate: schemas.PredAffiliatedWith,
				ObjectID:  rootID,
			})
			s.logger.Debug("person attached to root", zap.String("id", e.ID))
		}
	}
}

// adoptOrphans runs the reachability pass from the University root over
// hasPart edges and attaches unreached hierarchy-bearing entities under a
// synthetic Unaffiliated organization.
func (s *Synthesizer) adoptOrphans(g *graph.Graph, rootID string) []string {
	reached := g.ReachableFrom(rootID, schemas.PredHasPart)

	var orphans []string
	for _, e := range g.Entities() {
		if !s.registry.IsHierarchyBearing(e.Type) {
			continue
		}
		if _, ok := reached[e.ID]; !ok {
			orphans = append(orphans, e.ID)
		}
	}
	if len(orphans) == 0 {
		return nil
	}
	sort.Strings(orphans)

	unaffID := resolve.MintID(schemas.TypeOrganization, resolve.NormalizeName(UnaffiliatedName))
	if _, err := g.Entity(unaffID); err != nil {
		g.AddEntity(schemas.CanonicalEntity{
			ID:         unaffID,
			Type:       schemas.TypeOrganization,
			Attributes: map[string]any{"name": UnaffiliatedName},
		})
		_ = g.AddEdge(schemas.Relationship{SubjectID: unaffID, Predicate: schemas.PredPartOf, ObjectID: rootID})
	}

	warnings := make([]string, 0, len(orphans))
	for _, id := range orphans {
		_ = g.AddEdge(schemas.Relationship{SubjectID: id, Predicate: schemas.PredPartOf, ObjectID: unaffID})
		warnings = append(warnings, fmt.Sprintf("entity %s unreachable from root, attached under %s", id, UnaffiliatedName))
	}
	return warnings
}
