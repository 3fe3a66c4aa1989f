package naming

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstance(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		runID    string
		expected string
	}{
		{"uuid run id", "spotbuild", "3F2504E0-4F89-11D3-9A0C-0305E82C3301", "spotbuild-3f2504e0"},
		{"short run id", "build", "ab", "build-ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Instance(tt.prefix, tt.runID))
		})
	}
}

func TestInstance_RandomSuffix(t *testing.T) {
	a := Instance("spotbuild", "")
	b := Instance("spotbuild", "")

	assert.Regexp(t, regexp.MustCompile(`^spotbuild-[0-9a-f]{8}$`), a)
	assert.NotEqual(t, a, b)
}
