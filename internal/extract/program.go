package extract

import (
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

var programKinds = []struct {
	keyword string
	typ     schemas.EntityType
}{
	{"minor", schemas.TypeMinor},
	{"major", schemas.TypeMajor},
	{"bachelor", schemas.TypeBachelorProgram},
	{"b.sc", schemas.TypeBachelorProgram},
	{"b.a.", schemas.TypeBachelorProgram},
	{"master", schemas.TypeMasterProgram},
	{"m.sc", schemas.TypeMasterProgram},
	{"m.a.", schemas.TypeMasterProgram},
	{"doctoral", schemas.TypeDoctoralProgram},
	{"phd", schemas.TypeDoctoralProgram},
	{"promotion", schemas.TypeDoctoralProgram},
}

func classifyProgram(name, text string) schemas.EntityType {
	for _, k := range programKinds {
		if containsFold(name, k.keyword) {
			return k.typ
		}
	}
	for _, k := range programKinds {
		if containsFold(text, k.keyword) {
			return k.typ
		}
	}
	return schemas.TypeStudyProgram
}

// programStrategy reads a study-program catalog page.
type programStrategy struct {
	reg *schema.Registry
}

func (s *programStrategy) Name() string { return "program-catalog" }

func (s *programStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	name := pageTitle(doc)
	if name == "" {
		return nil
	}
	degree := labeledValue(doc, "Degree", "Abschluss")

	rec := schemas.RawRecord{
		Type: classifyProgram(name, degree),
		Attributes: map[string]any{
			"name": name,
		},
	}
	if desc := textOf(doc, "//main//p | //article//p | //p"); desc != "" {
		rec.Attributes["description"] = desc
	}
	if duration := labeledValue(doc, "Duration", "Regelstudienzeit"); duration != "" {
		rec.Attributes["duration"] = duration
	}
	if lang := labeledValue(doc, "Language", "Unterrichtssprache"); lang != "" {
		rec.Attributes["language"] = lang
	}
	if credits := labeledValue(doc, "Credits", "ECTS", "Credit points"); credits != "" {
		rec.Attributes["credits"] = credits
	}

	if offeredBy := labeledValue(doc, "Offered by", "School", "Faculty"); offeredBy != "" {
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
