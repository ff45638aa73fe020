package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/config"
)

var testLogger *zap.Logger

func TestMain(m *testing.M) {
	testLogger, _ = zap.NewDevelopment()
	code := m.Run()
	_ = testLogger.Sync()
	os.Exit(code)
}

const institutePage = `<html><head><title>Institute of Ecology</title></head><body>
<h1>Institute of Ecology</h1>
<p>Research on ecosystems and biodiversity in northern Germany.</p>
<dl>
  <dt>Part of</dt><dd>Leuphana University</dd>
  <dt>Head</dt><dd>Prof. Dr. Jane Doe</dd>
</dl>
</body></html>`

const professorPage = `<html><body>
<h1>Prof. Dr. Jane Doe</h1>
<h2>Professor of Ecology</h2>
<table>
  <tr><td>Email: <a href="mailto:j.doe@leuphana.de">j.doe@leuphana.de</a></td></tr>
  <tr><td>Office: C1.102</td></tr>
  <tr><td>Institute: Institute of Ecology</td></tr>
</table>
</body></html>`

const catalogPage = `<html><body>
<h1>Course Catalogue</h1>
<table>
  <tr><th>Course</th><th>Credits</th><th>Instructor</th></tr>
  <tr><td>Applied Statistics</td><td>5 CP</td><td>Dr. Erik Larsen</td></tr>
</table>
</body></html>`

func testPages() []schemas.PageDocument {
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC)
	}
	return []schemas.PageDocument{
		{ID: "org-ecology", Kind: schemas.PageKindOrganization, FetchedAt: day(1), Body: []byte(institutePage)},
		{ID: "person-jane", Kind: schemas.PageKindPerson, FetchedAt: day(2), Body: []byte(professorPage)},
		{
			ID: "course-catalog", Kind: schemas.PageKindCourse, FetchedAt: day(3),
			Body: []byte(catalogPage),
			Meta: map[string]string{"semester": "Winter 2026", "organization": "Institute of Ecology"},
		},
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(config.PipelineConfig{
		Workers:        4,
		UniversityName: "Leuphana University",
	}, testLogger)
	require.NoError(t, err)
	return p
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	result, err := p.Run(context.Background(), testPages())
	require.NoError(t, err)

	report := result.Report
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.PagesTotal)
	assert.Zero(t, report.PagesFailed)
	assert.Equal(t, 3, report.RecordsExtracted)
	assert.Equal(t, 1, report.StubsCreated)
	assert.Empty(t, report.Violations)
	assert.Equal(t, len(result.Triples), report.TriplesEmitted)
	assert.Equal(t, len(result.Export.Entities), report.EntitiesResolved)
	assert.Equal(t, len(result.Export.Edges), report.RelationshipsFinal)

	// Institute, professor, course, stub instructor and the synthesized
	// university root.
	require.Len(t, result.Export.Entities, 5)

	var stub *schemas.CanonicalEntity
	for i := range result.Export.Entities {
		if result.Export.Entities[i].ID == "person/erik-larsen" {
			stub = &result.Export.Entities[i]
		}
	}
	require.NotNil(t, stub, "dangling instructor should be minted as a stub")
	assert.True(t, stub.Stub)
	assert.Equal(t, schemas.TypePerson, stub.Type)
	assert.Equal(t, "Erik Larsen", stub.Attributes["name"])

	assert.Contains(t, result.Triples,
		"<http://campuskg.org/resource/university/leuphana-university> "+
			"<http://www.w3.org/1999/02/22-rdf-syntax-ns#type> "+
			"<http://campuskg.org/ontology#University> .")
	assert.Contains(t, result.Triples,
		"<http://campuskg.org/resource/course/applied-statistics> "+
			"<http://campuskg.org/ontology#taughtBy> "+
			"<http://campuskg.org/resource/person/erik-larsen> .")
	assert.Contains(t, result.Triples,
		"<http://campuskg.org/resource/person/erik-larsen> "+
			"<http://campuskg.org/ontology#teaches> "+
			"<http://campuskg.org/resource/course/applied-statistics> .")
}

func TestRunLinksExtractedAndSynthesizedEntities(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	result, err := p.Run(context.Background(), testPages())
	require.NoError(t, err)

	instituteID := "institute/institute-of-ecology"
	rootID := "university/leuphana-university"
	professorID := "professor/jane-doe"

	has := func(subj string, pred schemas.Predicate, obj string) bool {
		return result.Graph.HasEdge(schemas.Relationship{
			SubjectID: subj, Predicate: pred, ObjectID: obj,
		})
	}
	assert.True(t, has(instituteID, schemas.PredBelongsTo, rootID))
	assert.True(t, has(instituteID, schemas.PredPartOf, rootID), "specialization implies partOf")
	assert.True(t, has(rootID, schemas.PredHasPart, instituteID))
	assert.True(t, has(instituteID, schemas.PredHeadedBy, professorID))
	assert.True(t, has(professorID, schemas.PredHeads, instituteID))
	assert.True(t, has(professorID, schemas.PredWorksAt, instituteID))
	assert.True(t, has("course/applied-statistics", schemas.PredOfferedBy, instituteID))
	assert.True(t, has("person/erik-larsen", schemas.PredAffiliatedWith, rootID),
		"loose instructor should fall back to a university affiliation")
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)

	first, err := p.Run(context.Background(), testPages())
	require.NoError(t, err)

	second, err := p.Run(context.Background(), testPages())
	require.NoError(t, err)

	reversed := testPages()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	third, err := p.Run(context.Background(), reversed)
	require.NoError(t, err)

	assert.NotEqual(t, first.Report.RunID, second.Report.RunID)
	assert.Equal(t, first.Triples, second.Triples)
	assert.Equal(t, first.Triples, third.Triples)
	assert.Equal(t, first.Export.Entities, second.Export.Entities)
	assert.Equal(t, first.Export.Edges, third.Export.Edges)
	assert.True(t, sort.StringsAreSorted(first.Triples))
}

func TestRunReportsPageFailures(t *testing.T) {
	t.Parallel()

	pages := append(testPages(), schemas.PageDocument{
		ID: "empty-page", Kind: schemas.PageKindPerson, Body: []byte("<html><body></body></html>"),
	})

	p := newTestPipeline(t)
	result, err := p.Run(context.Background(), pages)
	require.NoError(t, err, "per-page failures must not abort the run")

	require.Len(t, result.Report.ExtractionFailures, 1)
	assert.Equal(t, "empty-page", result.Report.ExtractionFailures[0].PageID)
	assert.Equal(t, 1, result.Report.PagesFailed)
	assert.Equal(t, 3, result.Report.RecordsExtracted)
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jane.html"), []byte(professorPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ecology.html"), []byte(institutePage), 0o644))

	manifest := `[
  {"id": "person-jane", "kind": "person", "fetched_at": "2026-03-02T12:00:00Z", "file": "jane.html"},
  {"id": "org-ecology", "kind": "organization", "fetched_at": "2026-03-01", "file": "ecology.html",
   "meta": {"url": "https://www.leuphana.de/institute/ecology"}}
]`
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	pages, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "person-jane", pages[0].ID)
	assert.Equal(t, schemas.PageKindPerson, pages[0].Kind)
	assert.Equal(t, time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC), pages[0].FetchedAt)
	assert.Equal(t, []byte(professorPage), pages[0].Body)

	assert.Equal(t, schemas.PageKindOrganization, pages[1].Kind)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), pages[1].FetchedAt)
	assert.Equal(t, "https://www.leuphana.de/institute/ecology", pages[1].Meta["url"])
}

func TestLoadManifestErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("missing manifest", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := LoadManifest(write("broken.json", "{not json"))
		assert.Error(t, err)
	})

	t.Run("entry without id", func(t *testing.T) {
		_, err := LoadManifest(write("noid.json", `[{"kind": "person", "file": "jane.html"}]`))
		assert.ErrorContains(t, err, "id and file are required")
	})

	t.Run("missing body file", func(t *testing.T) {
		_, err := LoadManifest(write("nobody.json", `[{"id": "x", "kind": "person", "file": "gone.html"}]`))
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		write("jane.html", professorPage)
		_, err := LoadManifest(write("badtime.json",
			`[{"id": "x", "kind": "person", "fetched_at": "yesterday", "file": "jane.html"}]`))
		assert.Error(t, err)
	})
}
