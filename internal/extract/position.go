package extract

import (
	"regexp"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

var (
	// hoursRe matches "10 hours/week", "8 h per week", "19,5 Std./Woche".
	hoursRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[.,]\d)?)\s*(?:hours?|hrs?|h|std\.?)\s*(?:/|per\s+|pro\s+)?\s*(?:week|woche)\b`)
	// postingDateRe pulls YYYY/MM/DD out of a posting URL path.
	postingDateRe = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)
)

// positionStrategy reads a job posting. Student assistant postings become
// the more specific hiwi type.
type positionStrategy struct {
	reg *schema.Registry
}

func (s *positionStrategy) Name() string { return "position-posting" }

func (s *positionStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	name := pageTitle(doc)
	if name == "" {
		return nil
	}
	body := htmlquery.InnerText(doc)

	typ := schemas.TypeJobPosition
	if containsFold(name, "hiwi") || containsFold(name, "student assistant") ||
		containsFold(body, "studentische hilfskraft") || containsFold(body, "student assistant") {
		typ = schemas.TypeHiwiPosition
	}

	rec := schemas.RawRecord{
		Type:       typ,
		Attributes: map[string]any{"name": name},
	}
	if desc := textOf(doc, "//main//p | //article//p | //p"); desc != "" {
		rec.Attributes["description"] = desc
	}
	if m := hoursRe.FindStringSubmatch(body); m != nil {
		rec.Attributes["hoursPerWeek"] = m[1]
	}
	if email := firstEmail(doc); email != "" {
		rec.Attributes["email"] = email
	}
	if posted := s.postedDate(page, doc); posted != "" {
		rec.Attributes["postedDate"] = posted
	}
	if start := labeledValue(doc, "Start date", "Starting", "Beginn"); start != "" {
		rec.Attributes["startDate"] = start
	}

	if unit := s.postingUnit(page, doc, body); unit != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredPostedBy,
			Target: schemas.TargetDescriptor{
				Name:     unit,
				TypeHint: classifyOrganization(unit),
				PageID:   page.ID,
			},
		})
	}
	return []schemas.RawRecord{rec}
}

// postedDate prefers an explicit label, then the date segment many job
// boards keep in the posting URL.
func (s *positionStrategy) postedDate(page schemas.PageDocument, doc *html.Node) string {
	if posted := labeledValue(doc, "Posted", "Published", "Veröffentlicht"); posted != "" {
		return posted
	}
	source := page.Meta["url"]
	if source == "" {
		source = page.ID
	}
	if m := postingDateRe.FindStringSubmatch(source); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}

// postingUnit looks for the hiring unit by label first, then for an
// institute mention anywhere in the posting text.
func (s *positionStrategy) postingUnit(page schemas.PageDocument, doc *html.Node, body string) string {
	if unit := labeledValue(doc, "Institute", "Department", "Unit", "Hiring unit"); unit != "" {
		return unit
	}
	if unit := page.Meta["organization"]; unit != "" {
		return unit
	}
	if m := unitMentionRe.FindString(body); m != "" {
		return m
	}
	return ""
}

// unitMentionRe catches "Institute of X" / "Institute for X" style phrases.
// Continuation words must be capitalized (optionally connected) so the
// match stops at the end of the proper name.
var unitMentionRe = regexp.MustCompile(`(?:Institute|Center|Centre|School) (?:of|for) [A-ZÄÖÜ][\wäöüß]+(?: (?:and |of |for |und )?[A-ZÄÖÜ][\wäöüß]+){0,4}`)
