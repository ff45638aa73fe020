package rdf

import (
	"bytes"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/graph"
	"github.com/mhartwig22/campuskg/internal/schema"
)

var testLogger *zap.Logger

func TestMain(m *testing.M) {
	testLogger, _ = zap.NewDevelopment()
	code := m.Run()
	_ = testLogger.Sync()
	os.Exit(code)
}

func newTestSerializer(t *testing.T) *Serializer {
	t.Helper()
	reg, err := schema.Load("")
	require.NoError(t, err)
	return NewSerializer(reg, testLogger)
}

func buildGraph(t *testing.T, entities []schemas.CanonicalEntity, rels []schemas.Relationship) *graph.Graph {
	t.Helper()
	g := graph.New(testLogger)
	for _, e := range entities {
		g.AddEntity(e)
	}
	for _, rel := range rels {
		require.NoError(t, g.AddEdge(rel))
	}
	return g
}

func TestSerializeEmitsTypeAttributeAndRelationshipTriples(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	g := buildGraph(t,
		[]schemas.CanonicalEntity{
			{ID: "professor/jane-doe", Type: schemas.TypeProfessor, Attributes: map[string]any{
				"name":    "Jane Doe",
				"email":   "j.doe@leuphana.de",
				"credits": 5, // not sensible but exercises the integer range
			}},
			{ID: "course/statistics", Type: schemas.TypeCourse, Attributes: map[string]any{
				"name": "Statistics",
			}},
		},
		[]schemas.Relationship{
			{SubjectID: "course/statistics", Predicate: schemas.PredTaughtBy, ObjectID: "professor/jane-doe"},
		},
	)

	triples, violations, err := s.Serialize(g)
	require.NoError(t, err)
	assert.Empty(t, violations)

	joined := strings.Join(triples, "\n")
	assert.Contains(t, joined,
		"<http://campuskg.org/resource/professor/jane-doe> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://campuskg.org/ontology#Professor> .")
	assert.Contains(t, joined,
		`<http://campuskg.org/resource/professor/jane-doe> <http://campuskg.org/ontology#name> "Jane Doe" .`)
	assert.Contains(t, joined,
		`<http://campuskg.org/resource/professor/jane-doe> <http://campuskg.org/ontology#credits> "5"^^<http://www.w3.org/2001/XMLSchema#integer> .`)
	assert.Contains(t, joined,
		"<http://campuskg.org/resource/course/statistics> <http://campuskg.org/ontology#taughtBy> <http://campuskg.org/resource/professor/jane-doe> .")
}

func TestSerializeIsDeterministic(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	build := func() *graph.Graph {
		return buildGraph(t,
			[]schemas.CanonicalEntity{
				{ID: "b/2", Type: schemas.TypeCourse, Attributes: map[string]any{"name": "B"}},
				{ID: "a/1", Type: schemas.TypeProfessor, Attributes: map[string]any{"name": "A", "email": "a@x.de"}},
			},
			[]schemas.Relationship{
				{SubjectID: "b/2", Predicate: schemas.PredTaughtBy, ObjectID: "a/1"},
			},
		)
	}

	first, _, err := s.Serialize(build())
	require.NoError(t, err)
	second, _, err := s.Serialize(build())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, sort.StringsAreSorted(first), "triples must be sorted for diffable output")
}

func TestSerializeExcludesDomainRangeViolations(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	// A course heading an organization violates heads' declared domain.
	g := buildGraph(t,
		[]schemas.CanonicalEntity{
			{ID: "course/statistics", Type: schemas.TypeCourse, Attributes: map[string]any{"name": "Statistics"}},
			{ID: "institute/ecology", Type: schemas.TypeInstitute, Attributes: map[string]any{"name": "Ecology"}},
		},
		[]schemas.Relationship{
			{SubjectID: "course/statistics", Predicate: schemas.PredHeads, ObjectID: "institute/ecology"},
		},
	)

	triples, violations, err := s.Serialize(g)
	require.NoError(t, err)

	require.Len(t, violations, 1)
	assert.Equal(t, schemas.PredHeads, violations[0].Predicate)
	assert.Contains(t, violations[0].Reason, "domain")
	assert.NotContains(t, strings.Join(triples, "\n"), "heads")
}

func TestSerializeSubtypeSatisfiesSupertypeConstraint(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	// JuniorProfessor is deep below Person, Module below Course.
	g := buildGraph(t,
		[]schemas.CanonicalEntity{
			{ID: "juniorprofessor/kim-lee", Type: schemas.TypeJuniorProfessor, Attributes: map[string]any{"name": "Kim Lee"}},
			{ID: "module/research-design", Type: schemas.TypeModule, Attributes: map[string]any{"name": "Research Design"}},
		},
		[]schemas.Relationship{
			{SubjectID: "juniorprofessor/kim-lee", Predicate: schemas.PredTeaches, ObjectID: "module/research-design"},
		},
	)

	_, violations, err := s.Serialize(g)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestSerializeReportsUnknownAttributes(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	g := buildGraph(t, []schemas.CanonicalEntity{
		{ID: "professor/jane-doe", Type: schemas.TypeProfessor, Attributes: map[string]any{
			"name":     "Jane Doe",
			"shoeSize": 42,
		}},
	}, nil)

	triples, violations, err := s.Serialize(g)
	require.NoError(t, err)

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Reason, "shoeSize")
	assert.NotContains(t, strings.Join(triples, "\n"), "shoeSize")
}

func TestSerializeEscapesLiterals(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	g := buildGraph(t, []schemas.CanonicalEntity{
		{ID: "course/quotes", Type: schemas.TypeCourse, Attributes: map[string]any{
			"name": `Introduction to "Systems"` + "\n2026",
		}},
	}, nil)

	triples, _, err := s.Serialize(g)
	require.NoError(t, err)

	joined := strings.Join(triples, "\n")
	assert.Contains(t, joined, `\"Systems\"`)
	assert.Contains(t, joined, `\n2026`)
}

func TestWrite(t *testing.T) {
	t.Parallel()
	s := newTestSerializer(t)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf, []string{"<a> <b> <c> .", "<d> <e> <f> ."}))
	assert.Equal(t, "<a> <b> <c> .\n<d> <e> <f> .\n", buf.String())
}
