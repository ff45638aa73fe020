package resolve

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

var testLogger *zap.Logger

func TestMain(m *testing.M) {
	testLogger, _ = zap.NewDevelopment()
	code := m.Run()
	_ = testLogger.Sync()
	os.Exit(code)
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	reg, err := schema.Load("")
	require.NoError(t, err)
	return NewResolver(reg, "Leuphana University", testLogger)
}

func day(n int) time.Time {
	return time.Date(2026, 3, n, 12, 0, 0, 0, time.UTC)
}

func entityByID(t *testing.T, res *Result, id string) schemas.CanonicalEntity {
	t.Helper()
	for _, e := range res.Entities {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entity %s not found in result", id)
	return schemas.CanonicalEntity{}
}

func TestResolveDeduplicatesByNormalizedName(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	records := []schemas.RawRecord{
		{
			PageID: "page-a", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Jane Doe", "email": "j.doe@leuphana.de"},
		},
		{
			PageID: "page-b", FetchedAt: day(2), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Jane Doe", "office": "C1.102"},
		},
	}

	res, err := r.Resolve(records)
	require.NoError(t, err)

	e := entityByID(t, res, "professor/jane-doe")
	assert.Equal(t, "j.doe@leuphana.de", e.Attributes["email"])
	assert.Equal(t, "C1.102", e.Attributes["office"])
	assert.Equal(t, []string{"page-a", "page-b"}, e.SourcePages)

	// Only the professor and the synthesized university root.
	assert.Len(t, res.Entities, 2)
}

func TestResolveMergesNameVariantsOnSharedEmail(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	records := []schemas.RawRecord{
		{
			PageID: "page-a", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Jane Doe", "email": "j.doe@leuphana.de"},
		},
		{
			PageID: "page-b", FetchedAt: day(2), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "J. Doe", "office": "C1.102", "email": "j.doe@leuphana.de"},
		},
	}

	res, err := r.Resolve(records)
	require.NoError(t, err)

	// One merged person plus the university root. The canonical name is
	// the lexicographically smaller normalized variant.
	require.Len(t, res.Entities, 2)
	e := entityByID(t, res, "professor/j-doe")
	assert.Equal(t, "j.doe@leuphana.de", e.Attributes["email"])
	assert.Equal(t, "C1.102", e.Attributes["office"])
}

func TestResolveKeepsDistinctNamesApartWithoutSecondaryKey(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	records := []schemas.RawRecord{
		{PageID: "page-a", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Jane Doe"}},
		{PageID: "page-b", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "J. Doe"}},
	}

	res, err := r.Resolve(records)
	require.NoError(t, err)
	// No fuzzy matching: variants stay separate entities.
	assert.Len(t, res.Entities, 3)
}

func TestResolveAttributeMergePolicy(t *testing.T) {
	t.Parallel()

	t.Run("newer page wins", func(t *testing.T) {
		t.Parallel()
		r := newTestResolver(t)
		records := []schemas.RawRecord{
			{PageID: "old", FetchedAt: day(1), Type: schemas.TypeLecturer,
				Attributes: map[string]any{"name": "Maria Weber", "office": "A-100"}},
			{PageID: "new", FetchedAt: day(5), Type: schemas.TypeLecturer,
				Attributes: map[string]any{"name": "Maria Weber", "office": "B-200"}},
		}
		res, err := r.Resolve(records)
		require.NoError(t, err)
		e := entityByID(t, res, "lecturer/maria-weber")
		assert.Equal(t, "B-200", e.Attributes["office"])
		assert.Empty(t, res.Warnings)
	})

	t.Run("equal freshness keeps first-seen and warns", func(t *testing.T) {
		t.Parallel()
		r := newTestResolver(t)
		records := []schemas.RawRecord{
			{PageID: "a-page", FetchedAt: day(3), Type: schemas.TypeLecturer,
				Attributes: map[string]any{"name": "Maria Weber", "office": "A-100"}},
			{PageID: "b-page", FetchedAt: day(3), Type: schemas.TypeLecturer,
				Attributes: map[string]any{"name": "Maria Weber", "office": "B-200"}},
		}
		res, err := r.Resolve(records)
		require.NoError(t, err)
		e := entityByID(t, res, "lecturer/maria-weber")
		assert.Equal(t, "A-100", e.Attributes["office"])
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "office")
	})
}

func TestResolveCreatesStubForDanglingReference(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	records := []schemas.RawRecord{
		{
			PageID: "course-1", FetchedAt: day(1), Type: schemas.TypeCourse,
			Attributes: map[string]any{"name": "Applied Statistics"},
			Relationships: []schemas.RawRelationship{
				{Predicate: schemas.PredTaughtBy, Target: schemas.TargetDescriptor{
					Name: "Prof. Dr. Erik Larsen", TypeHint: schemas.TypePerson, PageID: "course-1",
				}},
			},
		},
	}

	res, err := r.Resolve(records)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StubsCreated)

	stub := entityByID(t, res, "person/erik-larsen")
	assert.True(t, stub.Stub)
	assert.Equal(t, "Erik Larsen", stub.Attributes["name"])

	require.Len(t, res.Relationships, 1)
	assert.Equal(t, schemas.Relationship{
		SubjectID: "course/applied-statistics",
		Predicate: schemas.PredTaughtBy,
		ObjectID:  "person/erik-larsen",
	}, res.Relationships[0])
}

func TestResolveDescriptorPrefersIndependentlyExtractedEntity(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	records := []schemas.RawRecord{
		{
			PageID: "person-1", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Erik Larsen", "email": "larsen@leuphana.de"},
		},
		{
			PageID: "course-1", FetchedAt: day(2), Type: schemas.TypeCourse,
			Attributes: map[string]any{"name": "Applied Statistics"},
			Relationships: []schemas.RawRelationship{
				{Predicate: schemas.PredTaughtBy, Target: schemas.TargetDescriptor{
					Name: "Erik Larsen", TypeHint: schemas.TypePerson, PageID: "course-1",
				}},
			},
		},
	}

	res, err := r.Resolve(records)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StubsCreated)
	require.Len(t, res.Relationships, 1)
	assert.Equal(t, "professor/erik-larsen", res.Relationships[0].ObjectID)
}

func TestResolveIsOrderIndependent(t *testing.T) {
	t.Parallel()

	records := []schemas.RawRecord{
		{PageID: "p1", FetchedAt: day(1), Type: schemas.TypeProfessor,
			Attributes: map[string]any{"name": "Jane Doe", "email": "j.doe@leuphana.de"}},
		{PageID: "p2", FetchedAt: day(2), Type: schemas.TypeInstitute,
			Attributes: map[string]any{"name": "Institute of Ecology"}},
		{PageID: "p3", FetchedAt: day(3), Type: schemas.TypeCourse,
			Attributes: map[string]any{"name": "Field Methods"},
			Relationships: []schemas.RawRelationship{
				{Predicate: schemas.PredTaughtBy, Target: schemas.TargetDescriptor{
					Name: "Jane Doe", TypeHint: schemas.TypePerson, PageID: "p3"}},
			}},
	}
	reversed := []schemas.RawRecord{records[2], records[1], records[0]}

	resA, err := newTestResolver(t).Resolve(records)
	require.NoError(t, err)
	resB, err := newTestResolver(t).Resolve(reversed)
	require.NoError(t, err)

	assert.Equal(t, resA.Entities, resB.Entities)
	assert.Equal(t, resA.Relationships, resB.Relationships)
}

func TestResolveSynthesizesUniversityRoot(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	res, err := r.Resolve([]schemas.RawRecord{
		{PageID: "p1", FetchedAt: day(1), Type: schemas.TypeInstitute,
			Attributes: map[string]any{"name": "Institute of Ecology"}},
	})
	require.NoError(t, err)

	root := entityByID(t, res, res.RootID)
	assert.Equal(t, schemas.TypeUniversity, root.Type)
	assert.Equal(t, "Leuphana University", root.Attributes["name"])
}
