package models

import "time"

// LineageKind is the position of a program inside its family.
type LineageKind int

const (
	LineageRoot LineageKind = iota
	LineageSpawned
)

// Lineage places a program in the two-level hierarchy. A root anchors a
// family; a spawned program always points at a root, never at another
// spawned program.
type Lineage struct {
	kind   LineageKind
	rootID string
}

func RootLineage() Lineage {
	return Lineage{kind: LineageRoot}
}

func SpawnedLineage(rootID string) Lineage {
	return Lineage{kind: LineageSpawned, rootID: rootID}
}

// LineageFromParent rebuilds a lineage from the stored parent column.
func LineageFromParent(parentProgramID *string) Lineage {
	if parentProgramID == nil || *parentProgramID == "" {
		return RootLineage()
	}
	return SpawnedLineage(*parentProgramID)
}

func (l Lineage) Kind() LineageKind {
	return l.kind
}

func (l Lineage) RootID() string {
	return l.rootID
}

type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CoachID     string    `json:"coach_id"`
	Active      bool      `json:"active"`
	Lineage     Lineage   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsParent reports whether the program is the root of its family.
func (p Program) IsParent() bool {
	return p.Lineage.Kind() == LineageRoot
}

// ParentProgramID is nil for roots.
func (p Program) ParentProgramID() *string {
	switch p.Lineage.Kind() {
	case LineageRoot:
		return nil
	case LineageSpawned:
		rootID := p.Lineage.RootID()
		return &rootID
	default:
		panic("models: unknown lineage kind")
	}
}

// CoalesceParentID returns the id of the family root: the program's own id
// for a root, else its parent id.
func (p Program) CoalesceParentID() string {
	switch p.Lineage.Kind() {
	case LineageRoot:
		return p.ID
	case LineageSpawned:
		return p.Lineage.RootID()
	default:
		panic("models: unknown lineage kind")
	}
}

// ProgramTargetState is the requested activation state of a family.
type ProgramTargetState int

const (
	ProgramActivate ProgramTargetState = iota + 1
	ProgramDeactivate
)

func (s ProgramTargetState) String() string {
	switch s {
	case ProgramActivate:
		return "ACTIVATE"
	case ProgramDeactivate:
		return "DEACTIVATE"
	default:
		return "UNKNOWN"
	}
}

// ProgramCoach pairs a program with the coach offering it.
type ProgramCoach struct {
	Program Program `json:"program"`
	Coach   User    `json:"coach"`
}

// ProgramDesire selects which programs a listing returns.
type ProgramDesire string

const (
	DesireExplore  ProgramDesire = "EXPLORE"
	DesireEnrolled ProgramDesire = "ENROLLED"
	DesireYours    ProgramDesire = "YOURS"
)
