package schemas

import "time"

// -- Pipeline Input Models --

// PageKind is the crawler-supplied hint describing what shape of page a
// document is. It selects which extraction strategies are attempted.
type PageKind string

const (
	PageKindOrganization PageKind = "organization"
	PageKindPerson       PageKind = "person"
	PageKindStaffList    PageKind = "staff-list"
	PageKindProgram      PageKind = "program"
	PageKindCourse       PageKind = "course"
	PageKindPosition     PageKind = "position"
	PageKindProject      PageKind = "project"
)

// PageDocument is a single fetched page handed to the pipeline by the
// external crawler. The pipeline never performs network I/O itself.
type PageDocument struct {
	ID        string            `json:"id"`
	Kind      PageKind          `json:"kind"`
	FetchedAt time.Time         `json:"fetched_at"`
	Body      []byte            `json:"-"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// -- Extraction Models --

// EntityType identifies one member of the closed entity-type set declared
// in the schema registry.
type EntityType string

const (
	TypeOrganization       EntityType = "Organization"
	TypeUniversity         EntityType = "University"
	TypeSchool             EntityType = "School"
	TypeTeachingSchool     EntityType = "TeachingSchool"
	TypeCollege            EntityType = "College"
	TypeGraduateSchool     EntityType = "GraduateSchool"
	TypeProfessionalSchool EntityType = "ProfessionalSchool"
	TypeInstitute          EntityType = "Institute"
	TypeResearchCenter     EntityType = "ResearchCenter"
	TypeResearchGroup      EntityType = "ResearchGroup"
	TypeChair              EntityType = "Chair"

	TypePerson              EntityType = "Person"
	TypeProfessor           EntityType = "Professor"
	TypeJuniorProfessor     EntityType = "JuniorProfessor"
	TypeHonoraryProfessor   EntityType = "HonoraryProfessor"
	TypeEmeritusProfessor   EntityType = "EmeritusProfessor"
	TypeVisitingProfessor   EntityType = "VisitingProfessor"
	TypeAdjunctProfessor    EntityType = "AdjunctProfessor"
	TypePostDoc             EntityType = "PostDoc"
	TypePhDStudent          EntityType = "PhDStudent"
	TypeLecturer            EntityType = "Lecturer"
	TypeResearchAssistant   EntityType = "ResearchAssistant"
	TypeVisitingScientist   EntityType = "VisitingScientist"
	TypeStudentAssistant    EntityType = "StudentAssistant"
	TypeAdministrativeStaff EntityType = "AdministrativeStaff"
	TypeAcademicStaff       EntityType = "AcademicStaff"

	TypeStudyProgram    EntityType = "StudyProgram"
	TypeBachelorProgram EntityType = "BachelorProgram"
	TypeMasterProgram   EntityType = "MasterProgram"
	TypeDoctoralProgram EntityType = "DoctoralProgram"
	TypeMajor           EntityType = "Major"
	TypeMinor           EntityType = "Minor"

	TypeCourse EntityType = "Course"
	TypeModule EntityType = "Module"

	TypeResearchArea    EntityType = "ResearchArea"
	TypeResearchProject EntityType = "ResearchProject"
	TypePublication     EntityType = "Publication"
	TypeJobPosition     EntityType = "JobPosition"
	TypeHiwiPosition    EntityType = "HiwiPosition"
)

// Predicate names a relationship type declared in the schema registry.
type Predicate string

const (
	PredPartOf          Predicate = "partOf"
	PredHasPart         Predicate = "hasPart"
	PredBelongsTo       Predicate = "belongsTo"
	PredHasInstitute    Predicate = "hasInstitute"
	PredMemberOf        Predicate = "memberOf"
	PredHasMember       Predicate = "hasMember"
	PredWorksAt         Predicate = "worksAt"
	PredHasEmployee     Predicate = "hasEmployee"
	PredAffiliatedWith  Predicate = "affiliatedWith"
	PredHasAffiliate    Predicate = "hasAffiliate"
	PredHeads           Predicate = "heads"
	PredHeadedBy        Predicate = "headedBy"
	PredOffers          Predicate = "offers"
	PredOfferedBy       Predicate = "offeredBy"
	PredConducts        Predicate = "conducts"
	PredConductedBy     Predicate = "conductedBy"
	PredTeaches         Predicate = "teaches"
	PredTaughtBy        Predicate = "taughtBy"
	PredWorksOn         Predicate = "worksOn"
	PredHasContributor  Predicate = "hasContributor"
	PredPostedBy        Predicate = "postedBy"
	PredHasPosting      Predicate = "hasPosting"
	PredHasResearchArea Predicate = "hasResearchArea"
	PredResearchAreaOf  Predicate = "researchAreaOf"
)

// TargetDescriptor is an unresolved reference to another entity, produced
// at extraction time. The target may not have been seen yet, so it carries
// a name and a type hint instead of a final identifier.
type TargetDescriptor struct {
	Name     string     `json:"name"`
	TypeHint EntityType `json:"type_hint"`
	PageID   string     `json:"page_id"`
}

// RawRelationship is a declared relationship from the extracted entity to
// an unresolved target.
type RawRelationship struct {
	Predicate Predicate        `json:"predicate"`
	Target    TargetDescriptor `json:"target"`
}

// RawRecord is the output of page extraction: one typed entity observation
// plus the relationships the page declares for it. RawRecords are consumed
// and discarded by identity resolution.
type RawRecord struct {
	PageID        string            `json:"page_id"`
	FetchedAt     time.Time         `json:"fetched_at"`
	Type          EntityType        `json:"type"`
	Attributes    map[string]any    `json:"attributes,omitempty"`
	Relationships []RawRelationship `json:"relationships,omitempty"`
}

// ExtractionFailure records a page the extractor could not handle. It is
// reported and skipped; the run continues.
type ExtractionFailure struct {
	PageID string `json:"page_id"`
	Reason string `json:"reason"`
}

// -- Resolved Graph Models --

// CanonicalEntity is the resolved, deduplicated unit: exactly one exists
// per real-world entity, with a deterministic IRI identifier.
type CanonicalEntity struct {
	ID          string         `json:"id"`
	Type        EntityType     `json:"type"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	SourcePages []string       `json:"source_pages,omitempty"`
	Stub        bool           `json:"stub,omitempty"`
}

// Relationship is a directed, resolved edge between two canonical entities.
// Relationships are never mutated after synthesis, only added or dropped
// at validation.
type Relationship struct {
	SubjectID string    `json:"subject_id"`
	Predicate Predicate `json:"predicate"`
	ObjectID  string    `json:"object_id"`
}

// GraphExport is the serializable form of a synthesized graph, consumed by
// the persistence layer and by external tooling.
type GraphExport struct {
	RunID    string            `json:"run_id"`
	Entities []CanonicalEntity `json:"entities"`
	Edges    []Relationship    `json:"edges"`
}

// -- Run Report Models --

// Violation records a relationship that failed a schema constraint and was
// excluded from the serialized output.
type Violation struct {
	SubjectID string    `json:"subject_id"`
	Predicate Predicate `json:"predicate"`
	ObjectID  string    `json:"object_id"`
	Reason    string    `json:"reason"`
}

// Report is the structured result of one pipeline run. A run always
// completes with either a full report or a single fatal error, never a
// partial unreported graph.
type Report struct {
	RunID              string              `json:"run_id"`
	StartedAt          time.Time           `json:"started_at"`
	FinishedAt         time.Time           `json:"finished_at"`
	PagesTotal         int                 `json:"pages_total"`
	PagesFailed        int                 `json:"pages_failed"`
	RecordsExtracted   int                 `json:"records_extracted"`
	EntitiesResolved   int                 `json:"entities_resolved"`
	StubsCreated       int                 `json:"stubs_created"`
	RelationshipsFinal int                 `json:"relationships_final"`
	TriplesEmitted     int                 `json:"triples_emitted"`
	ExtractionFailures []ExtractionFailure `json:"extraction_failures,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	Violations         []Violation         `json:"violations,omitempty"`
}
