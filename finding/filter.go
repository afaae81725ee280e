package finding

import (
	"fmt"
	"sort"
	"strings"
)

// Filter narrows a result set the way the hunt results view does.
// Zero-valued fields do not filter.
type Filter struct {
	// Severities keeps findings whose severity matches any entry (case-insensitive).
	Severities []Severity `json:"severities,omitempty" yaml:"severities,omitempty"`

	// MinConfidence drops findings below this confidence.
	MinConfidence float64 `json:"min_confidence,omitempty" yaml:"min_confidence,omitempty"`

	// Host keeps findings that affect this host (case-insensitive).
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Technique keeps findings that reference this technique or one of its sub-techniques.
	Technique string `json:"technique,omitempty" yaml:"technique,omitempty"`

	// Search is a case-insensitive substring match on title and description.
	Search string `json:"search,omitempty" yaml:"search,omitempty"`

	// Sort orders the kept findings: "severity" (most severe first) or
	// "confidence" (highest first). Empty keeps input order.
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// Sort orders accepted by Filter.Sort.
const (
	SortSeverity   = "severity"
	SortConfidence = "confidence"
)

// Validate reports an unknown sort order.
func (f Filter) Validate() error {
	switch strings.ToLower(strings.TrimSpace(f.Sort)) {
	case "", SortSeverity, SortConfidence:
		return nil
	default:
		return fmt.Errorf("%w: unknown sort %q (want %s or %s)", ErrInvalidFinding, f.Sort, SortSeverity, SortConfidence)
	}
}

// IsZero reports whether the filter would keep every finding.
func (f Filter) IsZero() bool {
	return len(f.Severities) == 0 &&
		f.MinConfidence <= 0 &&
		strings.TrimSpace(f.Host) == "" &&
		strings.TrimSpace(f.Technique) == "" &&
		strings.TrimSpace(f.Search) == "" &&
		strings.TrimSpace(f.Sort) == ""
}

// Match reports whether a single finding passes the filter.
func (f Filter) Match(fd *Finding) bool {
	if len(f.Severities) > 0 {
		matched := false
		sev := fd.Severity.Normalize()
		for _, s := range f.Severities {
			if s.Normalize() == sev {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MinConfidence > 0 && fd.Confidence < f.MinConfidence {
		return false
	}

	if host := strings.TrimSpace(f.Host); host != "" && !fd.AffectsHost(host) {
		return false
	}

	if technique := strings.TrimSpace(f.Technique); technique != "" && !fd.HasTechnique(technique) {
		return false
	}

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(fd.Title), search) &&
			!strings.Contains(strings.ToLower(fd.Description), search) {
			return false
		}
	}

	return true
}

// Apply returns the findings that pass the filter, in input order unless
// Sort is set. The input slice is never modified.
func (f Filter) Apply(findings []Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	for i := range findings {
		if f.Match(&findings[i]) {
			out = append(out, findings[i])
		}
	}

	switch strings.ToLower(strings.TrimSpace(f.Sort)) {
	case SortSeverity:
		out = SortBySeverity(out)
	case SortConfidence:
		out = SortByConfidence(out)
	}
	return out
}

// SortBySeverity returns a copy of findings ordered from most to least
// severe. Ties keep their original order.
func SortBySeverity(findings []Finding) []Finding {
	out := append([]Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareSeverity(out[i].Severity, out[j].Severity) > 0
	})
	return out
}

// SortByConfidence returns a copy of findings ordered by descending
// confidence. Ties keep their original order.
func SortByConfidence(findings []Finding) []Finding {
	out := append([]Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
