// Package schema holds the static registry of entity types, predicates and
// attribute ranges the pipeline validates against. The registry is loaded
// once per run and treated as immutable configuration; a malformed registry
// aborts the run before any page is processed.
package schema

import (
	"fmt"

	"github.com/mhartwig22/campuskg/api/schemas"
)

// AttrRange declares the value space of an attribute.
type AttrRange string

const (
	AttrString  AttrRange = "string"
	AttrInteger AttrRange = "integer"
	AttrDate    AttrRange = "date"
	AttrURI     AttrRange = "uri"
)

// TypeInfo describes one entity type in the single-inheritance type tree.
type TypeInfo struct {
	Name   schemas.EntityType
	Parent schemas.EntityType // empty for tree roots
	// Hierarchy marks types expected to sit in the partOf/hasPart tree
	// rooted at the University.
	Hierarchy bool
}

// PredicateInfo describes one relationship type, its inverse pairing and
// its domain/range constraint.
type PredicateInfo struct {
	Name    schemas.Predicate
	Inverse schemas.Predicate
	Domain  []schemas.EntityType
	Range   []schemas.EntityType
	// PartOfSpecialization marks predicates that imply the generic
	// partOf/hasPart pair (e.g. belongsTo).
	PartOfSpecialization bool
}

// AttributeInfo declares the value range of a named attribute.
type AttributeInfo struct {
	Name  string
	Range AttrRange
}

// Registry is the full schema: type tree, predicates and attribute ranges,
// plus the IRI namespaces used when minting identifiers and serializing.
type Registry struct {
	OntologyNS string
	ResourceNS string

	types      map[schemas.EntityType]TypeInfo
	predicates map[schemas.Predicate]PredicateInfo
	attributes map[string]AttributeInfo
}

// Builtin returns the default university registry. Callers must still run
// Validate before use; overrides loaded from a file can invalidate it.
func Builtin() *Registry {
	r := &Registry{
		OntologyNS: "http://campuskg.org/ontology#",
		ResourceNS: "http://campuskg.org/resource/",
		types:      make(map[schemas.EntityType]TypeInfo),
		predicates: make(map[schemas.Predicate]PredicateInfo),
		attributes: make(map[string]AttributeInfo),
	}

	for _, t := range builtinTypes {
		r.types[t.Name] = t
	}
	for _, p := range builtinPredicates {
		r.predicates[p.Name] = p
	}
	for _, a := range builtinAttributes {
		r.attributes[a.Name] = a
	}
	return r
}

var builtinTypes = []TypeInfo{
	{Name: schemas.TypeOrganization},
	{Name: schemas.TypeUniversity, Parent: schemas.TypeOrganization},
	{Name: schemas.TypeSchool, Parent: schemas.TypeOrganization, Hierarchy: true},
	{Name: schemas.TypeTeachingSchool, Parent: schemas.TypeOrganization, Hierarchy: true},
	{Name: schemas.TypeCollege, Parent: schemas.TypeTeachingSchool, Hierarchy: true},
	{Name: schemas.TypeGraduateSchool, Parent: schemas.TypeTeachingSchool, Hierarchy: true},
	{Name: schemas.TypeProfessionalSchool, Parent: schemas.TypeTeachingSchool, Hierarchy: true},
	{Name: schemas.TypeInstitute, Parent: schemas.TypeOrganization, Hierarchy: true},
	{Name: schemas.TypeResearchCenter, Parent: schemas.TypeOrganization, Hierarchy: true},
	{Name: schemas.TypeResearchGroup, Parent: schemas.TypeOrganization, Hierarchy: true},
	{Name: schemas.TypeChair, Parent: schemas.TypeOrganization, Hierarchy: true},

	{Name: schemas.TypePerson},
	{Name: schemas.TypeAcademicStaff, Parent: schemas.TypePerson},
	{Name: schemas.TypeProfessor, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypeJuniorProfessor, Parent: schemas.TypeProfessor},
	{Name: schemas.TypeHonoraryProfessor, Parent: schemas.TypeProfessor},
	{Name: schemas.TypeEmeritusProfessor, Parent: schemas.TypeProfessor},
	{Name: schemas.TypeVisitingProfessor, Parent: schemas.TypeProfessor},
	{Name: schemas.TypeAdjunctProfessor, Parent: schemas.TypeProfessor},
	{Name: schemas.TypePostDoc, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypePhDStudent, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypeLecturer, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypeResearchAssistant, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypeVisitingScientist, Parent: schemas.TypeAcademicStaff},
	{Name: schemas.TypeStudentAssistant, Parent: schemas.TypePerson},
	{Name: schemas.TypeAdministrativeStaff, Parent: schemas.TypePerson},

	{Name: schemas.TypeStudyProgram},
	{Name: schemas.TypeBachelorProgram, Parent: schemas.TypeStudyProgram},
	{Name: schemas.TypeMasterProgram, Parent: schemas.TypeStudyProgram},
	{Name: schemas.TypeDoctoralProgram, Parent: schemas.TypeStudyProgram},
	{Name: schemas.TypeMajor, Parent: schemas.TypeStudyProgram},
	{Name: schemas.TypeMinor, Parent: schemas.TypeStudyProgram},

	{Name: schemas.TypeCourse},
	{Name: schemas.TypeModule, Parent: schemas.TypeCourse},

	{Name: schemas.TypeResearchArea},
	{Name: schemas.TypeResearchProject},
	{Name: schemas.TypePublication},
	{Name: schemas.TypeJobPosition},
	{Name: schemas.TypeHiwiPosition, Parent: schemas.TypeJobPosition},
}

var builtinPredicates = []PredicateInfo{
	{
		Name: schemas.PredPartOf, Inverse: schemas.PredHasPart,
		Domain: []schemas.EntityType{schemas.TypeOrganization, schemas.TypeCourse, schemas.TypeStudyProgram},
		Range:  []schemas.EntityType{schemas.TypeOrganization, schemas.TypeStudyProgram},
	},
	{
		Name: schemas.PredHasPart, Inverse: schemas.PredPartOf,
		Domain: []schemas.EntityType{schemas.TypeOrganization, schemas.TypeStudyProgram},
		Range:  []schemas.EntityType{schemas.TypeOrganization, schemas.TypeCourse, schemas.TypeStudyProgram},
	},
	{
		Name: schemas.PredBelongsTo, Inverse: schemas.PredHasInstitute,
		Domain:               []schemas.EntityType{schemas.TypeInstitute, schemas.TypeResearchCenter, schemas.TypeChair},
		Range:                []schemas.EntityType{schemas.TypeOrganization},
		PartOfSpecialization: true,
	},
	{
		Name: schemas.PredHasInstitute, Inverse: schemas.PredBelongsTo,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypeInstitute, schemas.TypeResearchCenter, schemas.TypeChair},
	},
	{
		Name: schemas.PredMemberOf, Inverse: schemas.PredHasMember,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredHasMember, Inverse: schemas.PredMemberOf,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredWorksAt, Inverse: schemas.PredHasEmployee,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredHasEmployee, Inverse: schemas.PredWorksAt,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredAffiliatedWith, Inverse: schemas.PredHasAffiliate,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeUniversity},
	},
	{
		Name: schemas.PredHasAffiliate, Inverse: schemas.PredAffiliatedWith,
		Domain: []schemas.EntityType{schemas.TypeUniversity},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredHeads, Inverse: schemas.PredHeadedBy,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredHeadedBy, Inverse: schemas.PredHeads,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredOffers, Inverse: schemas.PredOfferedBy,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypeStudyProgram, schemas.TypeCourse},
	},
	{
		Name: schemas.PredOfferedBy, Inverse: schemas.PredOffers,
		Domain: []schemas.EntityType{schemas.TypeStudyProgram, schemas.TypeCourse},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredConducts, Inverse: schemas.PredConductedBy,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypeResearchProject},
	},
	{
		Name: schemas.PredConductedBy, Inverse: schemas.PredConducts,
		Domain: []schemas.EntityType{schemas.TypeResearchProject},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredTeaches, Inverse: schemas.PredTaughtBy,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeCourse},
	},
	{
		Name: schemas.PredTaughtBy, Inverse: schemas.PredTeaches,
		Domain: []schemas.EntityType{schemas.TypeCourse},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredWorksOn, Inverse: schemas.PredHasContributor,
		Domain: []schemas.EntityType{schemas.TypePerson},
		Range:  []schemas.EntityType{schemas.TypeResearchProject},
	},
	{
		Name: schemas.PredHasContributor, Inverse: schemas.PredWorksOn,
		Domain: []schemas.EntityType{schemas.TypeResearchProject},
		Range:  []schemas.EntityType{schemas.TypePerson},
	},
	{
		Name: schemas.PredPostedBy, Inverse: schemas.PredHasPosting,
		Domain: []schemas.EntityType{schemas.TypeJobPosition},
		Range:  []schemas.EntityType{schemas.TypeOrganization},
	},
	{
		Name: schemas.PredHasPosting, Inverse: schemas.PredPostedBy,
		Domain: []schemas.EntityType{schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypeJobPosition},
	},
	{
		Name: schemas.PredHasResearchArea, Inverse: schemas.PredResearchAreaOf,
		Domain: []schemas.EntityType{schemas.TypePerson, schemas.TypeOrganization},
		Range:  []schemas.EntityType{schemas.TypeResearchArea},
	},
	{
		Name: schemas.PredResearchAreaOf, Inverse: schemas.PredHasResearchArea,
		Domain: []schemas.EntityType{schemas.TypeResearchArea},
		Range:  []schemas.EntityType{schemas.TypePerson, schemas.TypeOrganization},
	},
}

var builtinAttributes = []AttributeInfo{
	{Name: "name", Range: AttrString},
	{Name: "description", Range: AttrString},
	{Name: "abbreviation", Range: AttrString},
	{Name: "title", Range: AttrString},
	{Name: "firstName", Range: AttrString},
	{Name: "lastName", Range: AttrString},
	{Name: "email", Range: AttrString},
	{Name: "phone", Range: AttrString},
	{Name: "office", Range: AttrString},
	{Name: "address", Range: AttrString},
	{Name: "duration", Range: AttrString},
	{Name: "language", Range: AttrString},
	{Name: "semester", Range: AttrString},
	{Name: "courseType", Range: AttrString},
	{Name: "fundingSource", Range: AttrString},
	{Name: "hoursPerWeek", Range: AttrString},
	{Name: "credits", Range: AttrInteger},
	{Name: "postedDate", Range: AttrDate},
	{Name: "startDate", Range: AttrDate},
	{Name: "endDate", Range: AttrDate},
	{Name: "webpage", Range: AttrURI},
	{Name: "imageURL", Range: AttrURI},
}

// -- Lookup --

// Type returns the descriptor for an entity type.
func (r *Registry) Type(t schemas.EntityType) (TypeInfo, bool) {
	ti, ok := r.types[t]
	return ti, ok
}

// Predicate returns the descriptor for a predicate.
func (r *Registry) Predicate(p schemas.Predicate) (PredicateInfo, bool) {
	pi, ok := r.predicates[p]
	return pi, ok
}

// Attribute returns the descriptor for an attribute name.
func (r *Registry) Attribute(name string) (AttributeInfo, bool) {
	ai, ok := r.attributes[name]
	return ai, ok
}

// IsSubtypeOf reports whether sub equals super or descends from it in the
// type tree. Lookups are explicit parent-pointer walks, never reflection.
func (r *Registry) IsSubtypeOf(sub, super schemas.EntityType) bool {
	for cur := sub; cur != ""; {
		if cur == super {
			return true
		}
		ti, ok := r.types[cur]
		if !ok {
			return false
		}
		cur = ti.Parent
	}
	return false
}

// RootOf returns the tree root of a type (Organization, Person, ...).
func (r *Registry) RootOf(t schemas.EntityType) schemas.EntityType {
	cur := t
	for {
		ti, ok := r.types[cur]
		if !ok || ti.Parent == "" {
			return cur
		}
		cur = ti.Parent
	}
}

// IsHierarchyBearing reports whether entities of this type are expected to
// be reachable from the University root via hasPart.
func (r *Registry) IsHierarchyBearing(t schemas.EntityType) bool {
	for cur := t; cur != ""; {
		ti, ok := r.types[cur]
		if !ok {
			return false
		}
		if ti.Hierarchy {
			return true
		}
		cur = ti.Parent
	}
	return false
}

// SatisfiesDomain reports whether an entity type satisfies the predicate's
// domain constraint (a subtype satisfies a supertype domain).
func (r *Registry) SatisfiesDomain(p PredicateInfo, t schemas.EntityType) bool {
	return r.satisfiesAny(p.Domain, t)
}

// SatisfiesRange reports whether an entity type satisfies the predicate's
// range constraint.
func (r *Registry) SatisfiesRange(p PredicateInfo, t schemas.EntityType) bool {
	return r.satisfiesAny(p.Range, t)
}

func (r *Registry) satisfiesAny(supers []schemas.EntityType, t schemas.EntityType) bool {
	for _, s := range supers {
		if r.IsSubtypeOf(t, s) {
			return true
		}
	}
	return false
}

// ClassIRI returns the ontology IRI asserted for an entity type.
func (r *Registry) ClassIRI(t schemas.EntityType) string {
	return r.OntologyNS + string(t)
}

// PredicateIRI returns the ontology IRI of a predicate.
func (r *Registry) PredicateIRI(p schemas.Predicate) string {
	return r.OntologyNS + string(p)
}

// AttributeIRI returns the ontology IRI of an attribute property.
func (r *Registry) AttributeIRI(name string) string {
	return r.OntologyNS + name
}

// PredicateNames returns all predicate names in lexical order-independent
// map form; callers needing determinism must sort.
func (r *Registry) PredicateNames() []schemas.Predicate {
	out := make([]schemas.Predicate, 0, len(r.predicates))
	for name := range r.predicates {
		out = append(out, name)
	}
	return out
}

// Validate checks the structural invariants of the registry. Any error
// returned here is fatal to the run: nothing is extracted or emitted.
func (r *Registry) Validate() error {
	for name, ti := range r.types {
		if ti.Parent != "" {
			if _, ok := r.types[ti.Parent]; !ok {
				return fmt.Errorf("schema registry: type %q has unknown parent %q", name, ti.Parent)
			}
		}
		// Cycle check via the two-pointer walk is overkill for a tree this
		// small; a bounded walk suffices.
		steps := 0
		for cur := name; cur != ""; {
			ti2 := r.types[cur]
			cur = ti2.Parent
			steps++
			if steps > len(r.types) {
				return fmt.Errorf("schema registry: type %q is part of a parent cycle", name)
			}
		}
	}

	for name, pi := range r.predicates {
		if pi.Inverse == "" {
			return fmt.Errorf("schema registry: predicate %q has no inverse declared", name)
		}
		inv, ok := r.predicates[pi.Inverse]
		if !ok {
			return fmt.Errorf("schema registry: predicate %q declares unknown inverse %q", name, pi.Inverse)
		}
		if inv.Inverse != name {
			return fmt.Errorf("schema registry: inverse pairing of %q and %q is not symmetric", name, pi.Inverse)
		}
		if len(pi.Domain) == 0 || len(pi.Range) == 0 {
			return fmt.Errorf("schema registry: predicate %q is missing a domain or range", name)
		}
		for _, t := range append(append([]schemas.EntityType{}, pi.Domain...), pi.Range...) {
			if _, ok := r.types[t]; !ok {
				return fmt.Errorf("schema registry: predicate %q references unknown type %q", name, t)
			}
		}
		if pi.PartOfSpecialization {
			part, ok := r.predicates[schemas.PredPartOf]
			if !ok {
				return fmt.Errorf("schema registry: %q specializes partOf but partOf is not declared", name)
			}
			for _, d := range pi.Domain {
				if !r.satisfiesAnyLoose(part.Domain, d) {
					return fmt.Errorf("schema registry: domain %q of %q is incompatible with partOf", d, name)
				}
			}
			for _, t := range pi.Range {
				if !r.satisfiesAnyLoose(part.Range, t) {
					return fmt.Errorf("schema registry: range %q of %q is incompatible with partOf", t, name)
				}
			}
		}
	}

	for name, ai := range r.attributes {
		switch ai.Range {
		case AttrString, AttrInteger, AttrDate, AttrURI:
		default:
			return fmt.Errorf("schema registry: attribute %q has unknown range %q", name, ai.Range)
		}
	}

	if r.OntologyNS == "" || r.ResourceNS == "" {
		return fmt.Errorf("schema registry: ontology and resource namespaces must be set")
	}
	return nil
}

// satisfiesAnyLoose accepts compatibility in either direction, used only
// for specialization checks where the specialized domain may be narrower.
func (r *Registry) satisfiesAnyLoose(supers []schemas.EntityType, t schemas.EntityType) bool {
	for _, s := range supers {
		if r.IsSubtypeOf(t, s) || r.IsSubtypeOf(s, t) {
			return true
		}
	}
	return false
}
