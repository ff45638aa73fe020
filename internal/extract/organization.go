package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// organizationKinds maps name keywords to organization types, checked in
// order so the more specific unit names win.
var organizationKinds = []struct {
	keyword string
	typ     schemas.EntityType
}{
	{"graduate school", schemas.TypeGraduateSchool},
	{"professional school", schemas.TypeProfessionalSchool},
	{"college", schemas.TypeCollege},
	{"research center", schemas.TypeResearchCenter},
	{"research centre", schemas.TypeResearchCenter},
	{"zentrum", schemas.TypeResearchCenter},
	{"center for", schemas.TypeResearchCenter},
	{"centre for", schemas.TypeResearchCenter},
	{"research group", schemas.TypeResearchGroup},
	{"arbeitsgruppe", schemas.TypeResearchGroup},
	{"institute", schemas.TypeInstitute},
	{"institut", schemas.TypeInstitute},
	{"chair", schemas.TypeChair},
	{"lehrstuhl", schemas.TypeChair},
	{"professur", schemas.TypeChair},
	{"faculty", schemas.TypeSchool},
	{"school", schemas.TypeSchool},
	{"fakultät", schemas.TypeSchool},
	{"university", schemas.TypeUniversity},
	{"universität", schemas.TypeUniversity},
}

// classifyOrganization picks the entity type a unit name implies.
func classifyOrganization(name string) schemas.EntityType {
	for _, k := range organizationKinds {
		if containsFold(name, k.keyword) {
			return k.typ
		}
	}
	return schemas.TypeOrganization
}

// splitAbbreviation peels a trailing "(CSM)" style short form off a unit
// name. Only short all-uppercase tokens count; "(continued)" stays put.
func splitAbbreviation(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if !strings.HasSuffix(trimmed, ")") {
		return name, ""
	}
	open := strings.LastIndexByte(trimmed, '(')
	if open < 0 {
		return name, ""
	}
	abbr := trimmed[open+1 : len(trimmed)-1]
	if len(abbr) < 2 || len(abbr) > 6 {
		return name, ""
	}
	for _, r := range abbr {
		if r < 'A' || r > 'Z' {
			return name, ""
		}
	}
	return strings.TrimSpace(trimmed[:open]), abbr
}

// organizationStrategy reads a unit's profile page: name, description,
// parent unit and head.
type organizationStrategy struct {
	reg *schema.Registry
}

func (s *organizationStrategy) Name() string { return "organization-profile" }

func (s *organizationStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	name := pageTitle(doc)
	if name == "" {
		return nil
	}
	name, abbr := splitAbbreviation(name)

	rec := schemas.RawRecord{
		Type: classifyOrganization(name),
		Attributes: map[string]any{
			"name": name,
		},
	}
	if desc := textOf(doc, "//main//p | //article//p | //p"); desc != "" {
		rec.Attributes["description"] = desc
	}
	if abbr == "" {
		abbr = labeledValue(doc, "Abbreviation", "Kürzel")
	}
	if abbr != "" {
		rec.Attributes["abbreviation"] = abbr
	}
	if home := attrOf(doc, "//link[@rel='canonical']", "href"); home != "" {
		rec.Attributes["webpage"] = home
	}

	if parent := labeledValue(doc, "Part of", "Belongs to", "Parent unit"); parent != "" {
		// Schools hang off the university with the generic predicate;
		// belongsTo is reserved for the institute level.
		pred := schemas.PredBelongsTo
		if !s.reg.IsSubtypeOf(rec.Type, schemas.TypeInstitute) &&
			!s.reg.IsSubtypeOf(rec.Type, schemas.TypeResearchCenter) &&
			!s.reg.IsSubtypeOf(rec.Type, schemas.TypeChair) {
			pred = schemas.PredPartOf
		}
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: pred,
			Target: schemas.TargetDescriptor{
				Name:     parent,
				TypeHint: classifyOrganization(parent),
				PageID:   page.ID,
			},
		})
	}
	if head := labeledValue(doc, "Head", "Director", "Leitung", "Speaker"); head != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredHeadedBy,
			Target: schemas.TargetDescriptor{
				Name:     head,
				TypeHint: schemas.TypePerson,
				PageID:   page.ID,
			},
		})
	}
	return []schemas.RawRecord{rec}
}
