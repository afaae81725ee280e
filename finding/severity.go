package finding

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a hunt finding.
type Severity string

const (
	// SeverityCritical indicates activity that needs immediate response.
	// Examples: credential dumping on a domain controller, active ransomware staging
	SeverityCritical Severity = "critical"

	// SeverityHigh indicates strong evidence of malicious activity.
	// Examples: lateral movement with valid accounts, suspicious service creation
	SeverityHigh Severity = "high"

	// SeverityMedium indicates activity that warrants analyst review.
	SeverityMedium Severity = "medium"

	// SeverityLow indicates weak or contextual signals.
	SeverityLow Severity = "low"
)

// Colors used by the attack path view. Unknown severities fall back to
// DefaultSeverityColor.
const (
	ColorCritical        = "#ef4444"
	ColorHigh            = "#f97316"
	ColorMedium          = "#f59e0b"
	ColorLow             = "#10b981"
	DefaultSeverityColor = "#6366f1"
)

// severityWeights maps severity levels to numeric weights used for ordering.
var severityWeights = map[Severity]float64{
	SeverityCritical: 10.0,
	SeverityHigh:     7.5,
	SeverityMedium:   5.0,
	SeverityLow:      2.5,
}

// Normalize returns the lowercase, trimmed form of the severity.
// Hunt results arrive from several backends that do not agree on casing.
func (s Severity) Normalize() Severity {
	return Severity(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsValid returns true if the severity level is one of the known levels.
// Matching is case-insensitive.
func (s Severity) IsValid() bool {
	switch s.Normalize() {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Weight returns the numeric weight associated with the severity level.
// Returns 0.0 for unknown severity levels.
func (s Severity) Weight() float64 {
	if weight, ok := severityWeights[s.Normalize()]; ok {
		return weight
	}
	return 0.0
}

// Color returns the display color for the severity. Unknown values map to
// DefaultSeverityColor rather than failing.
func (s Severity) Color() string {
	switch s.Normalize() {
	case SeverityCritical:
		return ColorCritical
	case SeverityHigh:
		return ColorHigh
	case SeverityMedium:
		return ColorMedium
	case SeverityLow:
		return ColorLow
	default:
		return DefaultSeverityColor
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a normalized Severity value.
// Returns an error if the string is not a known severity level.
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s).Normalize()
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

// CompareSeverity compares two severity levels.
// Returns:
//   - negative if s1 < s2
//   - zero if s1 == s2
//   - positive if s1 > s2
func CompareSeverity(s1, s2 Severity) int {
	w1 := s1.Weight()
	w2 := s2.Weight()
	if w1 < w2 {
		return -1
	}
	if w1 > w2 {
		return 1
	}
	return 0
}

// AllSeverities returns all valid severity levels in order from critical to low.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
	}
}
