package finance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStyleForCategory(t *testing.T) {
	if style := StyleForCategory("Vacation"); style.Icon != "fa-plane" {
		t.Errorf("Vacation icon = %s, want fa-plane", style.Icon)
	}
	// Unknown categories fall back to the globe, never to an empty style.
	if style := StyleForCategory("Crypto"); style.Icon != "fa-globe" || style.Color != "#607D8B" {
		t.Errorf("fallback style = %+v, want fa-globe/#607D8B", style)
	}
}

func TestProgressSeverity(t *testing.T) {
	tests := []struct {
		progress string
		want     Severity
		color    string
	}{
		{"0", SeverityNormal, "#4caf50"},
		{"74.99", SeverityNormal, "#4caf50"},
		{"75", SeverityWarning, "#ff9800"},
		{"89.99", SeverityWarning, "#ff9800"},
		{"90", SeverityCritical, "#f44336"},
		{"120", SeverityCritical, "#f44336"},
	}
	for _, tc := range tests {
		progress := decimal.RequireFromString(tc.progress)
		if got := ProgressSeverity(progress); got != tc.want {
			t.Errorf("ProgressSeverity(%s) = %s, want %s", tc.progress, got, tc.want)
		}
		if got := ProgressColor(progress); got != tc.color {
			t.Errorf("ProgressColor(%s) = %s, want %s", tc.progress, got, tc.color)
		}
	}
}
