package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"empty", Info{}, "dev"},
		{"version only", Info{Version: "v1.2.0"}, "v1.2.0"},
		{"full", Info{Version: "v1.2.0", Commit: "0123456789abcdef", Date: "2025-01-01", Dirty: true},
			"v1.2.0 (commit 0123456789ab, built 2025-01-01, dirty)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBanner(t *testing.T) {
	if got := String(); !strings.HasPrefix(got, "staticserver ") {
		t.Fatalf("banner = %q", got)
	}
}
