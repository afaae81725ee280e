package finding

import "testing"

func TestSeverity_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     bool
	}{
		{"critical is valid", SeverityCritical, true},
		{"high is valid", SeverityHigh, true},
		{"medium is valid", SeverityMedium, true},
		{"low is valid", SeverityLow, true},
		{"uppercase is valid", Severity("CRITICAL"), true},
		{"padded mixed case is valid", Severity("  High "), true},
		{"empty is invalid", Severity(""), false},
		{"info is invalid", Severity("info"), false},
		{"unknown is invalid", Severity("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.IsValid(); got != tt.want {
				t.Errorf("Severity.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_Weight(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     float64
	}{
		{"critical weight", SeverityCritical, 10.0},
		{"high weight", SeverityHigh, 7.5},
		{"medium weight", SeverityMedium, 5.0},
		{"low weight", SeverityLow, 2.5},
		{"case-insensitive weight", Severity("Medium"), 5.0},
		{"invalid weight", Severity("invalid"), 0.0},
		{"empty weight", Severity(""), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.Weight(); got != tt.want {
				t.Errorf("Severity.Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_Color(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     string
	}{
		{"critical", SeverityCritical, "#ef4444"},
		{"high", SeverityHigh, "#f97316"},
		{"medium", SeverityMedium, "#f59e0b"},
		{"low", SeverityLow, "#10b981"},
		{"uppercase critical", Severity("CRITICAL"), "#ef4444"},
		{"unknown falls back", Severity("informational"), "#6366f1"},
		{"empty falls back", Severity(""), "#6366f1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.Color(); got != tt.want {
				t.Errorf("Severity.Color() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Severity
		wantErr bool
	}{
		{"parse critical", "critical", SeverityCritical, false},
		{"parse uppercase", "HIGH", SeverityHigh, false},
		{"parse padded", " low ", SeverityLow, false},
		{"parse invalid", "severe", "", true},
		{"parse empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSeverity() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareSeverity(t *testing.T) {
	tests := []struct {
		name string
		s1   Severity
		s2   Severity
		want int
	}{
		{"critical > high", SeverityCritical, SeverityHigh, 1},
		{"low < medium", SeverityLow, SeverityMedium, -1},
		{"equal ignoring case", Severity("HIGH"), SeverityHigh, 0},
		{"unknown < low", Severity("weird"), SeverityLow, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareSeverity(tt.s1, tt.s2)
			if (got > 0) != (tt.want > 0) || (got < 0) != (tt.want < 0) {
				t.Errorf("CompareSeverity(%v, %v) = %v, want sign of %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestAllSeverities(t *testing.T) {
	all := AllSeverities()
	if len(all) != 4 {
		t.Fatalf("AllSeverities() returned %d levels, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if CompareSeverity(all[i-1], all[i]) <= 0 {
			t.Errorf("AllSeverities() not ordered: %v before %v", all[i-1], all[i])
		}
	}
}
