package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig22/campuskg/api/schemas"
)

func TestBuiltinValidates(t *testing.T) {
	t.Parallel()

	reg := Builtin()
	require.NoError(t, reg.Validate())
}

func TestIsSubtypeOf(t *testing.T) {
	t.Parallel()
	reg := Builtin()

	t.Run("type equals itself", func(t *testing.T) {
		t.Parallel()
		assert.True(t, reg.IsSubtypeOf(schemas.TypeProfessor, schemas.TypeProfessor))
	})

	t.Run("walks the full chain", func(t *testing.T) {
		t.Parallel()
		assert.True(t, reg.IsSubtypeOf(schemas.TypeJuniorProfessor, schemas.TypePerson))
		assert.True(t, reg.IsSubtypeOf(schemas.TypeCollege, schemas.TypeOrganization))
		assert.True(t, reg.IsSubtypeOf(schemas.TypeHiwiPosition, schemas.TypeJobPosition))
	})

	t.Run("rejects siblings and reversals", func(t *testing.T) {
		t.Parallel()
		assert.False(t, reg.IsSubtypeOf(schemas.TypePostDoc, schemas.TypeProfessor))
		assert.False(t, reg.IsSubtypeOf(schemas.TypePerson, schemas.TypeProfessor))
		assert.False(t, reg.IsSubtypeOf(schemas.TypeCourse, schemas.TypeOrganization))
	})
}

func TestInversePairing(t *testing.T) {
	t.Parallel()
	reg := Builtin()

	for _, name := range reg.PredicateNames() {
		pi, ok := reg.Predicate(name)
		require.True(t, ok)
		inv, ok := reg.Predicate(pi.Inverse)
		require.True(t, ok, "inverse of %s must be declared", name)
		assert.Equal(t, name, inv.Inverse, "inverse pairing of %s must be symmetric", name)
	}
}

func TestDomainRangeChecks(t *testing.T) {
	t.Parallel()
	reg := Builtin()

	teaches, ok := reg.Predicate(schemas.PredTeaches)
	require.True(t, ok)

	assert.True(t, reg.SatisfiesDomain(teaches, schemas.TypeProfessor), "subtype satisfies supertype domain")
	assert.False(t, reg.SatisfiesDomain(teaches, schemas.TypeCourse))
	assert.True(t, reg.SatisfiesRange(teaches, schemas.TypeModule))
	assert.False(t, reg.SatisfiesRange(teaches, schemas.TypeInstitute))
}

func TestHierarchyBearing(t *testing.T) {
	t.Parallel()
	reg := Builtin()

	assert.True(t, reg.IsHierarchyBearing(schemas.TypeInstitute))
	assert.True(t, reg.IsHierarchyBearing(schemas.TypeCollege), "inherited from TeachingSchool")
	assert.False(t, reg.IsHierarchyBearing(schemas.TypePerson))
	assert.False(t, reg.IsHierarchyBearing(schemas.TypeUniversity), "the root itself is not hierarchy-bearing")
}

func TestValidateCatchesBrokenRegistries(t *testing.T) {
	t.Parallel()

	t.Run("unknown parent", func(t *testing.T) {
		t.Parallel()
		reg := Builtin()
		reg.types["Ghost"] = TypeInfo{Name: "Ghost", Parent: "Nonexistent"}
		assert.Error(t, reg.Validate())
	})

	t.Run("asymmetric inverse", func(t *testing.T) {
		t.Parallel()
		reg := Builtin()
		pi := reg.predicates[schemas.PredTeaches]
		pi.Inverse = schemas.PredHeads
		reg.predicates[schemas.PredTeaches] = pi
		assert.Error(t, reg.Validate())
	})

	t.Run("missing domain", func(t *testing.T) {
		t.Parallel()
		reg := Builtin()
		pi := reg.predicates[schemas.PredTeaches]
		pi.Domain = nil
		reg.predicates[schemas.PredTeaches] = pi
		assert.Error(t, reg.Validate())
	})

	t.Run("specialization range drift", func(t *testing.T) {
		t.Parallel()
		reg := Builtin()
		pi := reg.predicates[schemas.PredBelongsTo]
		pi.Range = []schemas.EntityType{schemas.TypePerson}
		reg.predicates[schemas.PredBelongsTo] = pi
		err := reg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "incompatible with partOf")
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	t.Run("empty path keeps the builtin registry", func(t *testing.T) {
		t.Parallel()
		reg, err := Load("")
		require.NoError(t, err)
		_, ok := reg.Type(schemas.TypeProfessor)
		assert.True(t, ok)
	})

	t.Run("file overrides namespaces and adds types", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "registry.yaml")
		content := `
ontology_namespace: "http://example.org/ont#"
types:
  - name: SummerSchool
    parent: Organization
    hierarchy: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		reg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://example.org/ont#", reg.OntologyNS)
		ti, ok := reg.Type("SummerSchool")
		require.True(t, ok)
		assert.Equal(t, schemas.TypeOrganization, ti.Parent)
		assert.True(t, reg.IsHierarchyBearing("SummerSchool"))
	})

	t.Run("invalid override is fatal", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "registry.yaml")
		content := `
types:
  - name: Broken
    parent: DoesNotExist
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
