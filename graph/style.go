package graph

import "github.com/zero-day-ai/huntgraph/finding"

const (
	entityNodeWidth  = 180
	findingNodeWidth = 200
	textColor        = "#ffffff"

	userEdgeColor    = "#3b82f6"
	processEdgeColor = "#4f46e5"
)

var nodeStyles = map[Kind]NodeStyle{
	KindHost:    {BackgroundColor: "#1e293b", Color: textColor, BorderColor: "#475569", Width: entityNodeWidth},
	KindUser:    {BackgroundColor: "#1e40af", Color: textColor, BorderColor: "#2563eb", Width: entityNodeWidth},
	KindProcess: {BackgroundColor: "#4f46e5", Color: textColor, BorderColor: "#6366f1", Width: entityNodeWidth},
}

func entityStyle(kind Kind) NodeStyle {
	return nodeStyles[kind]
}

func findingStyle(severity finding.Severity) NodeStyle {
	color := severity.Color()
	return NodeStyle{
		BackgroundColor: color,
		Color:           textColor,
		BorderColor:     color,
		Width:           findingNodeWidth,
	}
}

// LegendEntry describes how one node kind is drawn.
type LegendEntry struct {
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
	Color string `json:"color"`
}

// Legend returns the node kinds in display order with their background
// colors. Finding nodes take their severity color; the legend shows the
// critical one.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "Host", Kind: KindHost, Color: nodeStyles[KindHost].BackgroundColor},
		{Label: "User", Kind: KindUser, Color: nodeStyles[KindUser].BackgroundColor},
		{Label: "Process", Kind: KindProcess, Color: nodeStyles[KindProcess].BackgroundColor},
		{Label: "Finding", Kind: KindFinding, Color: finding.SeverityCritical.Color()},
	}
}

// SeverityColors returns the display color of every known severity.
func SeverityColors() map[finding.Severity]string {
	colors := make(map[finding.Severity]string, 4)
	for _, s := range finding.AllSeverities() {
		colors[s] = s.Color()
	}
	return colors
}
