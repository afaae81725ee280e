package graph

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxLabelLength is the longest label shown on a node, in runes.
const MaxLabelLength = 30

const ellipsis = "..."

// unsafeNameChars matches path separators and whitespace in user and
// process names.
var unsafeNameChars = regexp.MustCompile(`[\\/\s]`)

// HostID returns the node ID for a hostname. Hostnames are matched
// case-insensitively and dots become dashes.
func HostID(host string) string {
	return "host-" + strings.ReplaceAll(strings.ToLower(host), ".", "-")
}

// UserID returns the node ID for a user name such as DOMAIN\admin.
func UserID(user string) string {
	return "user-" + normalizeName(user)
}

// ProcessID returns the node ID for a process seen in the finding at
// findingIndex. Process names are not unique across findings, so the index
// is part of the ID.
func ProcessID(name string, findingIndex int) string {
	return "process-" + normalizeName(name) + "-" + strconv.Itoa(findingIndex)
}

// ParentProcessID returns the node ID for the parent of the process seen in
// the finding at findingIndex.
func ParentProcessID(name string, findingIndex int) string {
	return "process-parent-" + normalizeName(name) + "-" + strconv.Itoa(findingIndex)
}

// FindingID returns the node ID for a finding.
func FindingID(id string) string {
	return "finding-" + id
}

// EdgeID returns the ID of the edge from source to target.
func EdgeID(source, target string) string {
	return "edge-" + source + "-" + target
}

// TruncateLabel shortens s to MaxLabelLength runes, replacing the tail with
// an ellipsis when it does not fit.
func TruncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxLabelLength {
		return s
	}
	return string(runes[:MaxLabelLength-len(ellipsis)]) + ellipsis
}

func normalizeName(s string) string {
	return unsafeNameChars.ReplaceAllString(strings.ToLower(s), "-")
}
