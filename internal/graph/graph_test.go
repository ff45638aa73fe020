package graph

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
)

var testLogger *zap.Logger

func TestMain(m *testing.M) {
	testLogger, _ = zap.NewDevelopment()
	code := m.Run()
	_ = testLogger.Sync()
	os.Exit(code)
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := New(testLogger)

	entities := []schemas.CanonicalEntity{
		{ID: "university/leuphana", Type: schemas.TypeUniversity},
		{ID: "school/sustainability", Type: schemas.TypeSchool},
		{ID: "institute/ecology", Type: schemas.TypeInstitute},
		{ID: "professor/jane-doe", Type: schemas.TypeProfessor},
	}
	for _, e := range entities {
		g.AddEntity(e)
	}

	edges := []schemas.Relationship{
		{SubjectID: "university/leuphana", Predicate: schemas.PredHasPart, ObjectID: "school/sustainability"},
		{SubjectID: "school/sustainability", Predicate: schemas.PredHasPart, ObjectID: "institute/ecology"},
		{SubjectID: "professor/jane-doe", Predicate: schemas.PredWorksAt, ObjectID: "institute/ecology"},
	}
	for _, rel := range edges {
		require.NoError(t, g.AddEdge(rel))
	}
	return g
}

func TestAddEdgeRequiresBothEndpoints(t *testing.T) {
	t.Parallel()
	g := New(testLogger)
	g.AddEntity(schemas.CanonicalEntity{ID: "a", Type: schemas.TypeInstitute})

	err := g.AddEdge(schemas.Relationship{SubjectID: "a", Predicate: schemas.PredPartOf, ObjectID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntityLookup(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	e, err := g.Entity("institute/ecology")
	require.NoError(t, err)
	assert.Equal(t, schemas.TypeInstitute, e.Type)

	_, err = g.Entity("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateEdgesAreAbsorbed(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	rel := schemas.Relationship{SubjectID: "professor/jane-doe", Predicate: schemas.PredWorksAt, ObjectID: "institute/ecology"}
	require.NoError(t, g.AddEdge(rel))
	require.NoError(t, g.AddEdge(rel))

	_, edges := g.Size()
	assert.Equal(t, 3, edges)
}

func TestEdgesAreSorted(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	edges := g.Edges()
	require.Len(t, edges, 3)
	for i := 1; i < len(edges); i++ {
		prev, cur := edges[i-1], edges[i]
		less := prev.SubjectID < cur.SubjectID ||
			(prev.SubjectID == cur.SubjectID && prev.Predicate < cur.Predicate) ||
			(prev.SubjectID == cur.SubjectID && prev.Predicate == cur.Predicate && prev.ObjectID < cur.ObjectID)
		assert.True(t, less, "edges must be sorted by (subject, predicate, object)")
	}
}

func TestOutgoingAndIncoming(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	assert.Equal(t, []string{"school/sustainability"}, g.Outgoing("university/leuphana", schemas.PredHasPart))
	assert.Equal(t, []string{"professor/jane-doe"}, g.Incoming("institute/ecology", schemas.PredWorksAt))
	assert.Empty(t, g.Outgoing("professor/jane-doe", schemas.PredHasPart))
}

func TestEntitiesOfType(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	assert.Equal(t, []string{"institute/ecology"}, g.EntitiesOfType(schemas.TypeInstitute))
	assert.Empty(t, g.EntitiesOfType(schemas.TypeCourse))
}

func TestReachableFrom(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	reached := g.ReachableFrom("university/leuphana", schemas.PredHasPart)
	assert.Contains(t, reached, "university/leuphana")
	assert.Contains(t, reached, "school/sustainability")
	assert.Contains(t, reached, "institute/ecology")
	assert.NotContains(t, reached, "professor/jane-doe")
}

func TestRemoveEdge(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t)

	rel := schemas.Relationship{SubjectID: "professor/jane-doe", Predicate: schemas.PredWorksAt, ObjectID: "institute/ecology"}
	g.RemoveEdge(rel)
	assert.False(t, g.HasEdge(rel))
	assert.Empty(t, g.Incoming("institute/ecology", schemas.PredWorksAt))
}
