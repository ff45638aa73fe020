package extract

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// projectStrategy reads a research project page: funding, duration, the
// conducting unit and the project team.
type projectStrategy struct {
	reg *schema.Registry
}

func (s *projectStrategy) Name() string { return "project-page" }

func (s *projectStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	name := pageTitle(doc)
	if name == "" {
		return nil
	}

	rec := schemas.RawRecord{
		Type:       schemas.TypeResearchProject,
		Attributes: map[string]any{"name": name},
	}
	if desc := textOf(doc, "//main//p | //article//p | //p"); desc != "" {
		rec.Attributes["description"] = desc
	}
	if funding := labeledValue(doc, "Funded by", "Funding", "Förderung"); funding != "" {
		rec.Attributes["fundingSource"] = funding
	}
	if start := labeledValue(doc, "Start", "From", "Laufzeit von"); start != "" {
		rec.Attributes["startDate"] = start
	}
	if end := labeledValue(doc, "End", "Until", "Laufzeit bis"); end != "" {
		rec.Attributes["endDate"] = end
	}

	if unit := labeledValue(doc, "Conducted by", "Institute", "Lead"); unit != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredConductedBy,
			Target: schemas.TargetDescriptor{
				Name:     unit,
				TypeHint: classifyOrganization(unit),
				PageID:   page.ID,
			},
		})
	}
	for _, member := range projectTeam(doc) {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredHasContributor,
			Target: schemas.TargetDescriptor{
				Name:     member,
				TypeHint: schemas.TypePerson,
				PageID:   page.ID,
			},
		})
	}
	return []schemas.RawRecord{rec}
}

// projectTeam collects names listed under a team-themed heading.
func projectTeam(doc *html.Node) []string {
	var team []string
	for _, heading := range htmlquery.Find(doc, "//h2 | //h3") {
		text := innerText(heading)
		if !containsFold(text, "team") && !containsFold(text, "staff") && !containsFold(text, "beteiligte") {
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
					if _, bare := resolve.StripTitles(innerText(li)); bare != "" {
						team = append(team, innerText(li))
					}
				}
				break
			}
		}
	}
	return team
}
