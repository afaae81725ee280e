// Package finding provides the types used to describe the output of a
// threat hunt: findings, their severities and their schema-less details.
//
// # Core Types
//
// Finding is one detected security observation:
//   - Severity and confidence
//   - Affected hosts and event counts
//   - MITRE ATT&CK technique identifiers
//   - Backend-specific Details (user, process name, command line, ...)
//
// # Severity Levels
//
// Severity is ranked from Critical to Low. Matching is case-insensitive
// because hunt backends disagree on casing, and unknown severities are
// tolerated: they sort last and render with DefaultSeverityColor.
//
// # Details
//
// Details is a map of arbitrary JSON values. Details.String coerces numbers
// and other scalar values to strings so callers never have to type-switch:
//
//	user, ok := f.Details.String(finding.DetailUser)
//	if ok {
//	    fmt.Println("user:", user)
//	}
//
// # Filtering
//
// Filter mirrors the controls of the hunt results view (severity, minimum
// confidence, host, technique and free-text search):
//
//	critical := finding.Filter{
//	    Severities:    []finding.Severity{finding.SeverityCritical},
//	    MinConfidence: 0.8,
//	}.Apply(findings)
//
// # Validation
//
// Validate enforces the input contract at service boundaries. Code that
// builds graphs does not need to call it; missing optional fields are
// simply skipped.
package finding
