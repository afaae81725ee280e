package graph

import "github.com/zero-day-ai/huntgraph/finding"

// Kind identifies what a node represents.
type Kind string

const (
	KindHost    Kind = "host"
	KindUser    Kind = "user"
	KindProcess Kind = "process"
	KindFinding Kind = "finding"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Position is a 2D layout coordinate in renderer units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeStyle carries the visual treatment of a node.
type NodeStyle struct {
	BackgroundColor string `json:"background_color"`
	Color           string `json:"color"`
	BorderColor     string `json:"border_color"`
	Width           int    `json:"width"`
}

// Node is one entity in the attack path graph.
type Node struct {
	// ID is derived from the kind and the normalized display value, so the
	// same input always yields the same ID.
	ID string `json:"id"`

	// Kind is host, user, process or finding.
	Kind Kind `json:"kind"`

	// Label is the display string, at most MaxLabelLength runes.
	Label string `json:"label"`

	// FullLabel is the untruncated display string, for tooltips.
	FullLabel string `json:"full_label"`

	// Position is the layout coordinate. Layout is arithmetic, not simulated.
	Position Position `json:"position"`

	// Style is the visual treatment of the node.
	Style NodeStyle `json:"style"`

	// Finding is set on finding nodes only. Renderers hand it back when a
	// finding node is activated.
	Finding *finding.Finding `json:"finding,omitempty"`
}

// IsTruncated reports whether Label is a shortened form of FullLabel.
func (n *Node) IsTruncated() bool {
	return n.Label != n.FullLabel
}
