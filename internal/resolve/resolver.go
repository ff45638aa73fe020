package resolve

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mhartwig22/campuskg/api/schemas"
	"github.com/mhartwig22/campuskg/internal/schema"
)

// secondaryKeys are the attributes trusted for exact-equality merges across
// name-variant groups. Matching is never fuzzy.
var secondaryKeys = []string{"email", "abbreviation", "office"}

// Result is the output of a resolution pass over the full record set.
type Result struct {
	// Entities sorted by ID.
	Entities []schemas.CanonicalEntity
	// Relationships with both endpoints resolved to canonical IDs,
	// deduplicated and sorted.
	Relationships []schemas.Relationship
	// RootID is the canonical ID of the University root entity.
	RootID string
	// Warnings holds non-fatal merge conflicts and tie-breaks.
	Warnings []string
	// StubsCreated counts placeholder entities minted for dangling
	// references.
	StubsCreated int
}

// Resolver deduplicates raw records and mints stable identifiers.
type Resolver struct {
	registry       *schema.Registry
	universityName string
	logger         *zap.Logger
}

func NewResolver(reg *schema.Registry, universityName string, logger *zap.Logger) *Resolver {
	return &Resolver{
		registry:       reg,
		universityName: universityName,
		logger:         logger.Named("resolver"),
	}
}

// group is one (type, normalized name) bucket of records prior to
// secondary-key merging.
type group struct {
	typ     schemas.EntityType
	name    string // normalized
	records []schemas.RawRecord
}

// Resolve runs the full identity-resolution pass. Records are treated as an
// immutable batch: grouping, merging and identifier minting depend only on
// record content, never on arrival order.
func (r *Resolver) Resolve(records []schemas.RawRecord) (*Result, error) {
	res := &Result{}

	// Deterministic processing order regardless of extraction scheduling.
	sorted := make([]schemas.RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].FetchedAt.Equal(sorted[j].FetchedAt) {
			return sorted[i].FetchedAt.Before(sorted[j].FetchedAt)
		}
		return sorted[i].PageID < sorted[j].PageID
	})

	groups := r.groupRecords(sorted, res)
	parent := r.mergeBySecondaryKeys(groups, res)

	entities, idOf := r.buildEntities(groups, parent, res)

	// Index for descriptor resolution: normalized name to candidate IDs.
	byName := map[string][]string{}
	for id, e := range entities {
		byName[e.normName] = append(byName[e.normName], id)
	}

	rootID := r.ensureUniversityRoot(&entities, byName)
	res.RootID = rootID

	rels := r.resolveRelationships(sorted, groups, parent, idOf, &entities, byName, res)

	res.Entities = make([]schemas.CanonicalEntity, 0, len(entities))
	for _, e := range entities {
		res.Entities = append(res.Entities, e.CanonicalEntity)
	}
	sort.Slice(res.Entities, func(i, j int) bool { return res.Entities[i].ID < res.Entities[j].ID })
	res.Relationships = rels

	r.logger.Info("resolution complete",
		zap.Int("records", len(records)),
		zap.Int("entities", len(res.Entities)),
		zap.Int("stubs", res.StubsCreated),
		zap.Int("relationships", len(res.Relationships)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// entity carries resolution-internal bookkeeping next to the public shape.
type entity struct {
	schemas.CanonicalEntity
	normName string
	attrAt   map[string]time.Time
}

func (r *Resolver) groupRecords(sorted []schemas.RawRecord, res *Result) []*group {
	index := map[string]int{}
	var groups []*group
	for _, rec := range sorted {
		name, _ := rec.Attributes["name"].(string)
		norm := NormalizeName(name)
		if norm == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("page %s: %s record has no usable name, dropped", rec.PageID, rec.Type))
			continue
		}
		key := string(rec.Type) + "\x00" + norm
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, &group{typ: rec.Type, name: norm})
		}
		groups[gi].records = append(groups[gi].records, rec)
	}
	return groups
}

// mergeBySecondaryKeys unions groups that share an exact secondary-key value
// and whose types sit on one line of the type tree. Returns the union-find
// parent table over group indexes.
func (r *Resolver) mergeBySecondaryKeys(groups []*group, res *Result) []int {
	parent := make([]int, len(groups))
	for i := range parent {
		parent[i] = i
	}

	for _, key := range secondaryKeys {
		byValue := map[string][]int{}
		for gi, g := range groups {
			for _, rec := range g.records {
				if v, ok := rec.Attributes[key].(string); ok && v != "" {
					byValue[strings.ToLower(strings.TrimSpace(v))] = append(byValue[strings.ToLower(strings.TrimSpace(v))], gi)
					break
				}
			}
		}
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			members := byValue[v]
			for i := 1; i < len(members); i++ {
				a, b := members[0], members[i]
				ta, tb := groups[a].typ, groups[b].typ
				if r.registry.IsSubtypeOf(ta, tb) || r.registry.IsSubtypeOf(tb, ta) {
					union(parent, a, b)
				}
			}
		}
	}
	return parent
}

func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}

func union(parent []int, a, b int) {
	ra, rb := find(parent, a), find(parent, b)
	if ra != rb {
		// Smaller index wins the root slot, keeping merges order-free.
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}
}

// buildEntities collapses each union-find component into one canonical
// entity. The component's identity is the most specific member type plus the
// lexicographically smallest normalized name, so the minted ID does not
// depend on which page was seen first.
func (r *Resolver) buildEntities(groups []*group, parent []int, res *Result) (map[string]*entity, map[int]string) {
	components := map[int][]int{}
	for gi := range groups {
		root := find(parent, gi)
		components[root] = append(components[root], gi)
	}

	entities := map[string]*entity{}
	idOf := map[int]string{}

	roots := make([]int, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	for _, root := range roots {
		members := components[root]
		typ := groups[members[0]].typ
		name := groups[members[0]].name
		for _, gi := range members[1:] {
			if r.registry.IsSubtypeOf(groups[gi].typ, typ) && groups[gi].typ != typ {
				typ = groups[gi].typ
			}
			if groups[gi].name < name {
				name = groups[gi].name
			}
		}

		id := MintID(typ, name)
		e, ok := entities[id]
		if !ok {
			e = &entity{
				CanonicalEntity: schemas.CanonicalEntity{
					ID:         id,
					Type:       typ,
					Attributes: map[string]any{},
				},
				normName: name,
				attrAt:   map[string]time.Time{},
			}
			entities[id] = e
		}
		for _, gi := range members {
			idOf[gi] = id
			for _, rec := range groups[gi].records {
				r.mergeRecord(e, rec, res)
			}
		}
	}
	return entities, idOf
}

// mergeRecord folds one record's attributes into the entity. Records arrive
// in (FetchedAt, PageID) order; a strictly newer page overwrites, an
// equally fresh conflicting value keeps the first-seen one and surfaces a
// warning.
func (r *Resolver) mergeRecord(e *entity, rec schemas.RawRecord, res *Result) {
	e.SourcePages = appendPage(e.SourcePages, rec.PageID)
	for attr, val := range rec.Attributes {
		if val == nil {
			continue
		}
		prevAt, seen := e.attrAt[attr]
		if !seen || rec.FetchedAt.After(prevAt) {
			e.Attributes[attr] = val
			e.attrAt[attr] = rec.FetchedAt
			continue
		}
		if existing := e.Attributes[attr]; existing != val {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"entity %s: attribute %q conflict between %v and %v (page %s), kept first-seen",
				e.ID, attr, existing, val, rec.PageID))
		}
	}
}

func appendPage(pages []string, id string) []string {
	i := sort.SearchStrings(pages, id)
	if i < len(pages) && pages[i] == id {
		return pages
	}
	pages = append(pages, "")
	copy(pages[i+1:], pages[i:])
	pages[i] = id
	return pages
}

// ensureUniversityRoot mints the hierarchy root when no organization page
// independently introduced it.
func (r *Resolver) ensureUniversityRoot(entities *map[string]*entity, byName map[string][]string) string {
	for _, e := range *entities {
		if e.Type == schemas.TypeUniversity {
			return e.ID
		}
	}
	norm := NormalizeName(r.universityName)
	id := MintID(schemas.TypeUniversity, norm)
	(*entities)[id] = &entity{
		CanonicalEntity: schemas.CanonicalEntity{
			ID:         id,
			Type:       schemas.TypeUniversity,
			Attributes: map[string]any{"name": r.universityName},
		},
		normName: norm,
		attrAt:   map[string]time.Time{},
	}
	byName[norm] = append(byName[norm], id)
	return id
}

// resolveRelationships maps every target descriptor to a canonical ID,
// minting stub entities for dangling references so no declared relationship
// is silently lost.
func (r *Resolver) resolveRelationships(
	sorted []schemas.RawRecord,
	groups []*group,
	parent []int,
	idOf map[int]string,
	entities *map[string]*entity,
	byName map[string][]string,
	res *Result,
) []schemas.Relationship {
	// Record identity lookup mirrors groupRecords.
	groupIndex := map[string]int{}
	for gi, g := range groups {
		groupIndex[string(g.typ)+"\x00"+g.name] = gi
	}

	seen := map[schemas.Relationship]struct{}{}
	var rels []schemas.Relationship

	for _, rec := range sorted {
		name, _ := rec.Attributes["name"].(string)
		gi, ok := groupIndex[string(rec.Type)+"\x00"+NormalizeName(name)]
		if !ok {
			continue // record was dropped for lacking a name
		}
		subjectID := idOf[gi]
		for _, rel := range rec.Relationships {
			objectID := r.resolveDescriptor(rel.Target, rel.Predicate, entities, byName, res)
			if objectID == "" || objectID == subjectID {
				continue
			}
			edge := schemas.Relationship{SubjectID: subjectID, Predicate: rel.Predicate, ObjectID: objectID}
			if _, dup := seen[edge]; !dup {
				seen[edge] = struct{}{}
				rels = append(rels, edge)
			}
		}
	}

	sort.Slice(rels, func(i, j int) bool {
		if rels[i].SubjectID != rels[j].SubjectID {
			return rels[i].SubjectID < rels[j].SubjectID
		}
		if rels[i].Predicate != rels[j].Predicate {
			return rels[i].Predicate < rels[j].Predicate
		}
		return rels[i].ObjectID < rels[j].ObjectID
	})
	return rels
}

// resolveDescriptor finds the entity a descriptor names, preferring a type
// match on one line of the type tree. Among several candidates the most
// specific type wins, then the smallest ID, keeping resolution
// deterministic.
func (r *Resolver) resolveDescriptor(
	d schemas.TargetDescriptor,
	pred schemas.Predicate,
	entities *map[string]*entity,
	byName map[string][]string,
	res *Result,
) string {
	norm := NormalizeName(d.Name)
	if norm == "" {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("page %s: %s reference with empty target name, dropped", d.PageID, pred))
		return ""
	}

	hint := d.TypeHint
	if hint == "" {
		hint = r.hintFromRange(pred)
	}

	var candidates []*entity
	for _, id := range byName[norm] {
		cand := (*entities)[id]
		if hint != "" && !r.registry.IsSubtypeOf(cand.Type, hint) && !r.registry.IsSubtypeOf(hint, cand.Type) {
			continue
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			di, dj := r.typeDepth(candidates[i].Type), r.typeDepth(candidates[j].Type)
			if di != dj {
				return di > dj
			}
			return candidates[i].ID < candidates[j].ID
		})
		return candidates[0].ID
	}

	if hint == "" {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("page %s: cannot type dangling reference %q via %s, dropped", d.PageID, d.Name, pred))
		return ""
	}

	// Dangling reference: mint a stub so the relationship survives.
	id := MintID(hint, norm)
	if _, ok := (*entities)[id]; !ok {
		_, bare := StripTitles(strings.TrimSpace(d.Name))
		(*entities)[id] = &entity{
			CanonicalEntity: schemas.CanonicalEntity{
				ID:         id,
				Type:       hint,
				Attributes: map[string]any{"name": bare},
				Stub:       true,
			},
			normName: norm,
			attrAt:   map[string]time.Time{},
		}
		byName[norm] = append(byName[norm], id)
		res.StubsCreated++
	}
	return id
}

// typeDepth is the distance from a type to its tree root, used to prefer
// the most specific candidate.
func (r *Resolver) typeDepth(t schemas.EntityType) int {
	depth := 0
	for cur := t; cur != ""; depth++ {
		ti, ok := r.registry.Type(cur)
		if !ok {
			break
		}
		cur = ti.Parent
	}
	return depth
}

// hintFromRange falls back to the sole range type of the predicate when the
// descriptor carries no hint of its own.
func (r *Resolver) hintFromRange(pred schemas.Predicate) schemas.EntityType {
	pi, ok := r.registry.Predicate(pred)
	if !ok || len(pi.Range) != 1 {
		return ""
	}
	return pi.Range[0]
}
