package extract

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// personRoles maps position keywords to person types. Order matters: the
// qualified professor variants must match before the plain "professor"
// keyword swallows them.
var personRoles = []struct {
	keyword string
	typ     schemas.EntityType
}{
	{"junior professor", schemas.TypeJuniorProfessor},
	{"juniorprofessor", schemas.TypeJuniorProfessor},
	{"honorary professor", schemas.TypeHonoraryProfessor},
	{"emeritus", schemas.TypeEmeritusProfessor},
	{"visiting professor", schemas.TypeVisitingProfessor},
	{"adjunct professor", schemas.TypeAdjunctProfessor},
	{"professor", schemas.TypeProfessor},
	{"postdoc", schemas.TypePostDoc},
	{"post-doc", schemas.TypePostDoc},
	{"postdoctoral", schemas.TypePostDoc},
	{"phd student", schemas.TypePhDStudent},
	{"doctoral candidate", schemas.TypePhDStudent},
	{"doktorand", schemas.TypePhDStudent},
	{"lecturer", schemas.TypeLecturer},
	{"research assistant", schemas.TypeResearchAssistant},
	{"research associate", schemas.TypeResearchAssistant},
	{"wissenschaftliche mitarbeiter", schemas.TypeResearchAssistant},
	{"visiting scientist", schemas.TypeVisitingScientist},
	{"visiting researcher", schemas.TypeVisitingScientist},
	{"student assistant", schemas.TypeStudentAssistant},
	{"studentische hilfskraft", schemas.TypeStudentAssistant},
	{"secretary", schemas.TypeAdministrativeStaff},
	{"administration", schemas.TypeAdministrativeStaff},
	{"coordinator", schemas.TypeAdministrativeStaff},
}

// classifyPerson picks a person type from a free-text position line. An
// academic title on the name decides before the position text does.
func classifyPerson(titles, position string) schemas.EntityType {
	if containsFold(titles, "jun.-prof") {
		return schemas.TypeJuniorProfessor
	}
	for _, r := range personRoles {
		if containsFold(position, r.keyword) {
			return r.typ
		}
	}
	if containsFold(titles, "prof") {
		return schemas.TypeProfessor
	}
	return schemas.TypeAcademicStaff
}

// personStrategy reads a staff profile page: contact details, role and
// affiliations.
type personStrategy struct {
	reg *schema.Registry
}

func (s *personStrategy) Name() string { return "person-profile" }

func (s *personStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	raw := pageTitle(doc)
	titles, bare := resolve.StripTitles(raw)
	if bare == "" {
		return nil
	}

	position := labeledValue(doc, "Position", "Role", "Funktion")
	if position == "" {
		position = textOf(doc, "//h2 | //*[@class='position'] | //*[@class='role']")
	}

	rec := schemas.RawRecord{
		Type: classifyPerson(titles, position),
		Attributes: map[string]any{
			"name": bare,
		},
	}
	if titles != "" {
		rec.Attributes["title"] = titles
	}
	if email := firstEmail(doc); email != "" {
		rec.Attributes["email"] = email
	}
	if phone := labeledValue(doc, "Phone", "Tel", "Telefon"); phone != "" {
		rec.Attributes["phone"] = phone
	}
	if office := labeledValue(doc, "Office", "Room", "Raum", "Büro"); office != "" {
		rec.Attributes["office"] = office
	}

	if unit := labeledValue(doc, "Institute", "Department", "Affiliation", "Unit"); unit != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredWorksAt,
			Target: schemas.TargetDescriptor{
				Name:     unit,
				TypeHint: classifyOrganization(unit),
				PageID:   page.ID,
			},
		})
		if containsFold(position, "head") || containsFold(position, "director") {
			rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
				Predicate: schemas.PredHeads,
				Target: schemas.TargetDescriptor{
					Name:     unit,
					TypeHint: classifyOrganization(unit),
					PageID:   page.ID,
				},
			})
		}
	}

	for _, area := range researchAreas(doc) {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredHasResearchArea,
			Target: schemas.TargetDescriptor{
				Name:     area,
				TypeHint: schemas.TypeResearchArea,
				PageID:   page.ID,
			},
		})
	}
	return []schemas.RawRecord{rec}
}

// researchAreas collects list items under a research-themed heading,
// capped so publication-heavy profile pages stay bounded.
const maxResearchAreas = 5

func researchAreas(doc *html.Node) []string {
	var areas []string
	for _, heading := range htmlquery.Find(doc, "//h2 | //h3") {
		text := innerText(heading)
		if !containsFold(text, "research") && !containsFold(text, "forschung") {
			continue
		}
		for sib := heading.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type != html.ElementNode {
				continue
			}
			if sib.Data == "h2" || sib.Data == "h3" {
				break
			}
			if sib.Data == "ul" || sib.Data == "ol" {
				for _, li := range htmlquery.Find(sib, "./li") {
					if len(areas) == maxResearchAreas {
						return areas
					}
					if item := innerText(li); item != "" {
						areas = append(areas, item)
					}
				}
				break
			}
		}
	}
	return areas
}
