package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleFindings() []Finding {
	return []Finding{
		{ID: "f1", Title: "Suspicious PowerShell", Severity: "HIGH", Confidence: 0.7, AffectedHosts: []string{"WS-12"}, Techniques: []string{"T1059.001"}},
		{ID: "f2", Title: "LSASS access", Description: "credential dumping", Severity: SeverityCritical, Confidence: 0.95, AffectedHosts: []string{"DC01"}, Techniques: []string{"T1003.001"}},
		{ID: "f3", Title: "Odd DNS volume", Severity: SeverityLow, Confidence: 0.4, AffectedHosts: []string{"ws-12", "dns01"}},
		{ID: "f4", Title: "New service", Severity: SeverityHigh, Confidence: 0.95, AffectedHosts: nil, Techniques: []string{"T1543.003"}},
	}
}

func ids(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter keeps everything", Filter{}, []string{"f1", "f2", "f3", "f4"}},
		{"severity is case-insensitive", Filter{Severities: []Severity{"high"}}, []string{"f1", "f4"}},
		{"multiple severities", Filter{Severities: []Severity{SeverityCritical, SeverityLow}}, []string{"f2", "f3"}},
		{"min confidence", Filter{MinConfidence: 0.9}, []string{"f2", "f4"}},
		{"host ignores case", Filter{Host: "WS-12"}, []string{"f1", "f3"}},
		{"technique parent matches sub-technique", Filter{Technique: "T1003"}, []string{"f2"}},
		{"search covers description", Filter{Search: "CREDENTIAL"}, []string{"f2"}},
		{"combined", Filter{Severities: []Severity{SeverityHigh}, MinConfidence: 0.9}, []string{"f4"}},
		{"nothing matches", Filter{Host: "nope"}, []string{}},
		{"sort by severity", Filter{Sort: SortSeverity}, []string{"f2", "f1", "f4", "f3"}},
		{"sort is case-insensitive", Filter{Severities: []Severity{SeverityHigh}, Sort: "Confidence"}, []string{"f4", "f1"}},
		{"sort after filtering", Filter{Host: "ws-12", Sort: SortConfidence}, []string{"f1", "f3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(sampleFindings())))
		})
	}
}

func TestFilter_ApplyDoesNotMutate(t *testing.T) {
	in := sampleFindings()
	_ = Filter{Severities: []Severity{SeverityCritical}}.Apply(in)
	assert.Equal(t, []string{"f1", "f2", "f3", "f4"}, ids(in))
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.True(t, Filter{Host: "  "}.IsZero())
	assert.False(t, Filter{MinConfidence: 0.1}.IsZero())
	assert.False(t, Filter{Sort: SortSeverity}.IsZero())
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Sort: " Severity "}.Validate())
	assert.NoError(t, Filter{Sort: SortConfidence}.Validate())

	err := Filter{Sort: "newest"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidFinding)
}

func TestSortBySeverity(t *testing.T) {
	in := sampleFindings()
	sorted := SortBySeverity(in)

	assert.Equal(t, []string{"f2", "f1", "f4", "f3"}, ids(sorted))
	assert.Equal(t, []string{"f1", "f2", "f3", "f4"}, ids(in), "input must not be reordered")
}

func TestSortByConfidence(t *testing.T) {
	sorted := SortByConfidence(sampleFindings())
	assert.Equal(t, []string{"f2", "f4", "f1", "f3"}, ids(sorted))
}
