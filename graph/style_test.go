package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/huntgraph/finding"
)

func TestLegend(t *testing.T) {
	legend := Legend()
	require.Len(t, legend, 4)

	assert.Equal(t, LegendEntry{Label: "Host", Kind: KindHost, Color: "#1e293b"}, legend[0])
	assert.Equal(t, LegendEntry{Label: "User", Kind: KindUser, Color: "#1e40af"}, legend[1])
	assert.Equal(t, LegendEntry{Label: "Process", Kind: KindProcess, Color: "#4f46e5"}, legend[2])
	assert.Equal(t, LegendEntry{Label: "Finding", Kind: KindFinding, Color: "#ef4444"}, legend[3])
}

func TestSeverityColors(t *testing.T) {
	colors := SeverityColors()
	assert.Equal(t, map[finding.Severity]string{
		finding.SeverityCritical: "#ef4444",
		finding.SeverityHigh:     "#f97316",
		finding.SeverityMedium:   "#f59e0b",
		finding.SeverityLow:      "#10b981",
	}, colors)
}

func TestEntityStyles(t *testing.T) {
	g := Build(huntFindings())

	for _, n := range g.Nodes {
		switch n.Kind {
		case KindFinding:
			assert.Equal(t, 200, n.Style.Width, n.ID)
			assert.Equal(t, n.Style.BackgroundColor, n.Style.BorderColor, n.ID)
		default:
			assert.Equal(t, 180, n.Style.Width, n.ID)
			assert.Equal(t, "#ffffff", n.Style.Color, n.ID)
		}
	}

	high, ok := g.Node("finding-f2")
	require.True(t, ok)
	assert.Equal(t, "#f97316", high.Style.BackgroundColor, "mixed-case severity still colors")
}
