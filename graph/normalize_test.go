package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostID(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"DC01", "host-dc01"},
		{"dc01", "host-dc01"},
		{"fs01.corp.local", "host-fs01-corp-local"},
		{"10.0.0.5", "host-10-0-0-5"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, HostID(tt.host))
		})
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		user string
		want string
	}{
		{"DOMAIN\\admin", "user-domain-admin"},
		{"corp/svc_sql", "user-corp-svc_sql"},
		{"John Smith", "user-john-smith"},
		{"tab\there", "user-tab-here"},
		{"root", "user-root"},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			assert.Equal(t, tt.want, UserID(tt.user))
		})
	}
}

func TestProcessIDs(t *testing.T) {
	assert.Equal(t, "process-cmd.exe-3", ProcessID("cmd.exe", 3))
	assert.Equal(t, "process-c:-windows-system32-cmd.exe-0", ProcessID("C:\\Windows\\System32\\cmd.exe", 0))
	assert.Equal(t, "process-parent-explorer.exe-2", ParentProcessID("Explorer.exe", 2))
}

func TestFindingAndEdgeIDs(t *testing.T) {
	assert.Equal(t, "finding-abc", FindingID("abc"))
	assert.Equal(t, "edge-finding-abc-host-dc01", EdgeID(FindingID("abc"), HostID("DC01")))
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "cmd.exe", "cmd.exe"},
		{"exactly thirty", strings.Repeat("x", 30), strings.Repeat("x", 30)},
		{"thirty one", strings.Repeat("x", 31), strings.Repeat("x", 27) + "..."},
		{"forty", strings.Repeat("a", 30) + strings.Repeat("b", 10), strings.Repeat("a", 27) + "..."},
		{"multibyte counted as runes", strings.Repeat("é", 31), strings.Repeat("é", 27) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateLabel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), MaxLabelLength)
		})
	}
}
