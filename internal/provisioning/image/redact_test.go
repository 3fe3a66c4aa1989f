package image

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRedactor(t *testing.T) {
	tests := []struct {
		name    string
		secrets []string
		in      string
		want    string
	}{
		{"no secrets", nil, "plain output", "plain output"},
		{"empty secret ignored", []string{""}, "plain output", "plain output"},
		{"single", []string{"tok"}, "using tok here and tok there", "using [REDACTED] here and [REDACTED] there"},
		{"multiple", []string{"alpha", "beta"}, "alpha beta gamma", "[REDACTED] [REDACTED] gamma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newRedactor(tt.secrets).redact(tt.in))
		})
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "error\n", 100, "error"},
		{"empty", "", 10, ""},
		{"cut at line", "first line\nsecond line\nthird", 15, "third"},
		{"no newline", strings.Repeat("x", 20), 5, "xxxxx"},
		{"multi-byte rune not split", "fehler: ungültige Größe", 4, "ße"},
		{"cut inside last rune", "abc✓", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tail(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
