package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/resolve"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// staffListStrategy reads a unit's member roster: one person record per
// row, each carrying a memberOf reference to the listing unit.
type staffListStrategy struct {
	reg *schema.Registry
}

func (s *staffListStrategy) Name() string { return "staff-list" }

// listSuffixes are trimmed off the page title to recover the unit name.
var listSuffixes = []string{
	"staff", "team", "members", "people", "mitarbeiter", "mitarbeitende",
}

func (s *staffListStrategy) Extract(page schemas.PageDocument, doc *html.Node) []schemas.RawRecord {
	unit := page.Meta["organization"]
	if unit == "" {
		unit = pageTitle(doc)
		for _, suffix := range listSuffixes {
			lower := strings.ToLower(unit)
			if idx := strings.LastIndex(lower, suffix); idx > 0 {
				unit = strings.TrimRight(strings.TrimSpace(unit[:idx]), "-–: ")
				break
			}
		}
	}

	root := goquery.NewDocumentFromNode(doc)

	var records []schemas.RawRecord
	add := func(_ int, row *goquery.Selection) {
		rec, ok := s.rowRecord(page, row, unit)
		if ok {
			records = append(records, rec)
		}
	}
	root.Find("table tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.ChildrenFiltered("td").Length() > 0
	}).Each(add)
	root.Find("ul[class*='staff'] li, ul[class*='team'] li, ul[class*='member'] li").Each(add)
	return records
}

func (s *staffListStrategy) rowRecord(page schemas.PageDocument, row *goquery.Selection, unit string) (schemas.RawRecord, bool) {
	var nameText, roleText string
	email := firstEmail(row.Get(0))

	cells := row.ChildrenFiltered("td")
	if cells.Length() > 0 {
		nameText = innerText(cells.Get(0))
		if cells.Length() > 1 {
			roleText = innerText(cells.Get(1))
		}
	} else {
		// List rows: "Jane Doe (Research Assistant)" or a nested link.
		if link := row.Find("a").First(); link.Length() > 0 {
			nameText = innerText(link.Get(0))
		}
		full := innerText(row.Get(0))
		if nameText == "" {
			nameText = full
		}
		if open := strings.IndexByte(full, '('); open >= 0 {
			if end := strings.IndexByte(full[open:], ')'); end > 0 {
				roleText = full[open+1 : open+end]
				if nameText == full {
					nameText = strings.TrimSpace(full[:open])
				}
			}
		}
	}

	titles, bare := resolve.StripTitles(nameText)
	if bare == "" || strings.Count(bare, " ") > 4 {
		return schemas.RawRecord{}, false
	}

	rec := schemas.RawRecord{
		Type:       classifyPerson(titles, roleText),
		Attributes: map[string]any{"name": bare},
	}
	if titles != "" {
		rec.Attributes["title"] = titles
	}
	if email != "" {
		rec.Attributes["email"] = email
	}
	if unit != "" {
		rec.Relationships = append(rec.Relationships, schemas.RawRelationship{
			Predicate: schemas.PredMemberOf,
			Target: schemas.TargetDescriptor{
				Name:     unit,
				TypeHint: classifyOrganization(unit),
				PageID:   page.ID,
			},
		})
	}
	return rec, true
}
