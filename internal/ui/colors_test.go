package ui

import (
	"testing"

	"github.com/law-makers/shelfscan/pkg/models"
)

func TestShouldColor(t *testing.T) {
	tests := []struct {
		noColor  string
		terminal bool
		want     bool
	}{
		{"", true, true},
		{"", false, false},
		{"1", true, false},
	}
	for _, tt := range tests {
		if got := ShouldColor(tt.noColor, tt.terminal); got != tt.want {
			t.Errorf("ShouldColor(%q, %v) = %v, want %v", tt.noColor, tt.terminal, got, tt.want)
		}
	}
}

func TestDisable(t *testing.T) {
	Disable()
	if got := Status(models.StatusAborted); got != "aborted" {
		t.Errorf("expected plain status, got %q", got)
	}
	if got := Bold("x"); got != "x" {
		t.Errorf("expected plain text, got %q", got)
	}
}
