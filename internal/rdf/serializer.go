// Package rdf turns the synthesized graph into a deterministic N-Triples
// document, validating every statement against the schema registry first.
package rdf

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/graph"
	"github.com/mhartwig22/campuskg/internal/schema"
)

const (
	rdfTypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDate    = "http://www.w3.org/2001/XMLSchema#date"
	xsdAnyURI  = "http://www.w3.org/2001/XMLSchema#anyURI"
)

// Serializer validates a graph and emits its triple set.
type Serializer struct {
	registry *schema.Registry
	logger   *zap.Logger
}

func NewSerializer(reg *schema.Registry, logger *zap.Logger) *Serializer {
	return &Serializer{registry: reg, logger: logger.Named("serializer")}
}

// Serialize walks the graph and returns the triple lines plus the schema
// violations found. Violating statements are excluded from the triples,
// never silently kept. The lines are sorted by (subject, predicate,
// object) so identical graphs serialize byte-identically.
func (s *Serializer) Serialize(g *graph.Graph) ([]string, []schemas.Violation, error) {
	var (
		triples    []string
		violations []schemas.Violation
	)

	for _, e := range g.Entities() {
		if _, ok := s.registry.Type(e.Type); !ok {
			violations = append(violations, schemas.Violation{
				SubjectID: e.ID,
				Reason:    fmt.Sprintf("entity type %q is not in the schema registry", e.Type),
			})
			continue
		}
		triples = append(triples, s.tripleIRI(e.ID, rdfTypeIRI, s.registry.ClassIRI(e.Type)))

		names := make([]string, 0, len(e.Attributes))
		for attr := range e.Attributes {
			names = append(names, attr)
		}
		sort.Strings(names)
		for _, attr := range names {
			line, viol := s.attributeTriple(e, attr, e.Attributes[attr])
			if viol != nil {
				violations = append(violations, *viol)
				continue
			}
			if line != "" {
				triples = append(triples, line)
			}
		}
	}

	for _, rel := range g.Edges() {
		if viol := s.checkDomainRange(g, rel); viol != nil {
			violations = append(violations, *viol)
			continue
		}
		triples = append(triples, s.tripleIRI(
			rel.SubjectID, s.registry.PredicateIRI(rel.Predicate), s.registry.ResourceNS+rel.ObjectID))
	}

	sort.Strings(triples)

	s.logger.Info("serialization complete",
		zap.Int("triples", len(triples)),
		zap.Int("violations", len(violations)))
	return triples, violations, nil
}

// Write emits the triples to w, one statement per line.
func (s *Serializer) Write(w io.Writer, triples []string) error {
	for _, t := range triples {
		if _, err := io.WriteString(w, t+"\n"); err != nil {
			return fmt.Errorf("writing triples: %w", err)
		}
	}
	return nil
}

// checkDomainRange validates one relationship against its predicate's
// declared constraint, walking up the type tree so a subtype satisfies a
// supertype domain.
func (s *Serializer) checkDomainRange(g *graph.Graph, rel schemas.Relationship) *schemas.Violation {
	pi, ok := s.registry.Predicate(rel.Predicate)
	if !ok {
		return &schemas.Violation{
			SubjectID: rel.SubjectID, Predicate: rel.Predicate, ObjectID: rel.ObjectID,
			Reason: "predicate is not in the schema registry",
		}
	}
	subj, err := g.Entity(rel.SubjectID)
	if err != nil {
		return &schemas.Violation{
			SubjectID: rel.SubjectID, Predicate: rel.Predicate, ObjectID: rel.ObjectID,
			Reason: "subject entity is missing from the graph",
		}
	}
	obj, err := g.Entity(rel.ObjectID)
	if err != nil {
		return &schemas.Violation{
			SubjectID: rel.SubjectID, Predicate: rel.Predicate, ObjectID: rel.ObjectID,
			Reason: "object entity is missing from the graph",
		}
	}
	if !s.registry.SatisfiesDomain(pi, subj.Type) {
		return &schemas.Violation{
			SubjectID: rel.SubjectID, Predicate: rel.Predicate, ObjectID: rel.ObjectID,
			Reason: fmt.Sprintf("subject type %s violates domain of %s", subj.Type, rel.Predicate),
		}
	}
	if !s.registry.SatisfiesRange(pi, obj.Type) {
		return &schemas.Violation{
			SubjectID: rel.SubjectID, Predicate: rel.Predicate, ObjectID: rel.ObjectID,
			Reason: fmt.Sprintf("object type %s violates range of %s", obj.Type, rel.Predicate),
		}
	}
	return nil
}

// attributeTriple renders one attribute statement, applying the declared
// value range. Nil or empty values render nothing.
func (s *Serializer) attributeTriple(e schemas.CanonicalEntity, attr string, val any) (string, *schemas.Violation) {
	ai, ok := s.registry.Attribute(attr)
	if !ok {
		return "", &schemas.Violation{
			SubjectID: e.ID,
			Reason:    fmt.Sprintf("attribute %q is not in the schema registry", attr),
		}
	}

	subj := "<" + s.registry.ResourceNS + e.ID + ">"
	pred := "<" + s.registry.AttributeIRI(attr) + ">"

	var obj string
	switch ai.Range {
	case schema.AttrInteger:
		n, ok := toInt(val)
		if !ok {
			return "", nil
		}
		obj = fmt.Sprintf("%q^^<%s>", strconv.Itoa(n), xsdInteger)
	case schema.AttrDate:
		sv, _ := val.(string)
		if sv == "" {
			return "", nil
		}
		obj = fmt.Sprintf("%q^^<%s>", sv, xsdDate)
	case schema.AttrURI:
		sv, _ := val.(string)
		if sv == "" {
			return "", nil
		}
		obj = fmt.Sprintf("%q^^<%s>", sv, xsdAnyURI)
	default:
		sv := fmt.Sprintf("%v", val)
		if sv == "" {
			return "", nil
		}
		obj = "\"" + escapeLiteral(sv) + "\""
	}
	return subj + " " + pred + " " + obj + " .", nil
}

func toInt(val any) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// tripleIRI renders a statement whose object is an IRI.
func (s *Serializer) tripleIRI(subjID, predIRI, objIRI string) string {
	return "<" + s.registry.ResourceNS + subjID + "> <" + predIRI + "> <" + objIRI + "> ."
}

// escapeLiteral applies N-Triples string escaping.
func escapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
