package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// creditsRe matches "5 CP", "6 ECTS", "10 LP" style credit declarations.
var creditsRe = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:CP|ECTS|LP|credit points?)\b`)

var courseKinds = []struct {
	keyword string
	typ     schemas.EntityType
}{
	{"module", schemas.TypeModule},
	{"modul", schemas.TypeModule},
}

func classifyCourse(name string) schemas.EntityType {
	for _, k := range courseKinds {
		if containsFold(name, k.keyword) {
			return k.typ
		}
	}
	return schemas.TypeCourse
}

// courseTypeOf recognizes the teaching format from the course name.
func courseTypeOf(name string) string {
	switch {
	case containsFold(name, "seminar"):
		return "seminar"
	case containsFold(name, "lecture"), containsFold(name, "vorlesung"):
		return "lecture"
	case containsFold(name, "exercise"), containsFold(name, "übung"), containsFold(name, "tutorial"):
		return "exercise"
	case containsFold(name, "colloquium"), containsFold(name, "kolloquium"):
		return "colloquium"
	}
	return ""
}

func parseCredits(text string) (int, bool) {
	m := creditsRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// instructorNames finds person names in a cell: anything carrying an
// academic title counts, comma- or slash-separated.
func instructorNames(text string) []string {
	var names []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == '/' }) {
		titles, bare := resolve.StripTitles(strings.TrimSpace(part))
		if titles != "" && bare != "" {
			names = append(names, strings.TrimSpace(part))
		}
	}
	return names
}

// courseTableStrategy reads catalog tables: one course per row with name,
// credits and instructor cells.
type courseTableStrategy struct {
	reg *schema.Registry
}

func (s *courseTableStrategy) Name() string { return "course-table" }

func (s *courseTableStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	semester := page.Meta["semester"]
	if semester == "" {
		semester = labeledValue(doc, "Semester")
	}
	offeredBy := page.Meta["organization"]

	var records []schemas.RawRecord
	for _, row := range htmlquery.Find(doc, "//table//tr[td]") {
		cells := htmlquery.Find(row, "./td")
		if len(cells) == 0 {
			continue
		}
		name := innerText(cells[0])
		if name == "" {
			continue
		}

		rec := schemas.RawRecord{
			Type:       classifyCourse(name),
			Attributes: map[string]any{"name": name},
		}
		if ct := courseTypeOf(name); ct != "" {
			rec.Attributes["courseType"] = ct
		}
		if semester != "" {
			rec.Attributes["semester"] = semester
		}
		rowText := innerText(row)
		if credits, ok := parseCredits(rowText); ok {
			rec.Attributes["credits"] = credits
		}
		for _, cell := range cells[1:] {
			for _, instructor := range instructorNames(innerText(cell)) {
				rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
					Predicate: schemas.PredTaughtBy,
					Target: schemas.TargetDescriptor{
						Name:     instructor,
						TypeHint: schemas.TypePerson,
						PageID:   page.ID,
					},
				})
			}
		}
		if offeredBy != "" {
			rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
				Predicate: schemas.PredOfferedBy,
				Target: schemas.TargetDescriptor{
					Name:     offeredBy,
					TypeHint: classifyOrganization(offeredBy),
					PageID:   page.ID,
				},
			})
		}
		records = append(records, rec)
	}
	return records
}

// courseHeadingStrategy is the fallback for a single course's own page.
type courseHeadingStrategy struct {
	reg *schema.Registry
}

func (s *courseHeadingStrategy) Name() string { return "course-page" }

func (s *courseHeadingStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	name := pageTitle(doc)
	if name == "" {
		return nil
	}

	rec := schemas.RawRecord{
		Type:       classifyCourse(name),
		Attributes: map[string]any{"name": name},
	}
	if ct := courseTypeOf(name); ct != "" {
		rec.Attributes["courseType"] = ct
	}
	if semester := labeledValue(doc, "Semester"); semester != "" {
		rec.Attributes["semester"] = semester
	}
	if credits, ok := parseCredits(htmlquery.InnerText(doc)); ok {
		rec.Attributes["credits"] = credits
	}
	if lang := labeledValue(doc, "Language", "Unterrichtssprache"); lang != "" {
		rec.Attributes["language"] = lang
	}

	instructor := labeledValue(doc, "Instructor", "Lecturer", "Dozent", "Teacher")
	for _, n := range splitNames(instructor) {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredTaughtBy,
			Target: schemas.TargetDescriptor{
				Name:     n,
				TypeHint: schemas.TypePerson,
				PageID:   page.ID,
			},
		})
	}
	if offeredBy := labeledValue(doc, "Offered by", "Institute", "School"); offeredBy != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredOfferedBy,
			Target: schemas.TargetDescriptor{
				Name:     offeredBy,
				TypeHint: classifyOrganization(offeredBy),
				PageID:   page.ID,
			},
		})
	}
	return []schemas.RawRecord{rec}
}

func splitNames(text string) []string {
	var names []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == '/' }) {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}
