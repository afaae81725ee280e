package graph

// Relation describes what an edge means. It follows from the kinds of the
// two endpoints.
type Relation string

const (
	// RelationAffects links a finding to a host it was observed on.
	RelationAffects Relation = "affects"

	// RelationInvolvedIn links a user to a finding.
	RelationInvolvedIn Relation = "involved_in"

	// RelationExecutedIn links a process to a finding.
	RelationExecutedIn Relation = "executed_in"

	// RelationSpawned links a parent process to its child.
	RelationSpawned Relation = "spawned"
)

// MarkerArrowClosed is the marker type for a filled arrow head.
const MarkerArrowClosed = "arrowclosed"

// EdgeStyle carries the visual treatment of an edge.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"stroke_width"`
}

// Marker decorates the end of an edge.
type Marker struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`

	// Animated marks primary (finding to host) edges.
	Animated bool `json:"animated"`

	Style  EdgeStyle `json:"style"`
	Marker *Marker   `json:"marker_end,omitempty"`
}

// IsPrimary reports whether the edge is a finding to host edge.
func (e *Edge) IsPrimary() bool {
	return e.Relation == RelationAffects
}
