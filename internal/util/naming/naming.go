package naming

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const suffixLen = 8

// Instance returns the name of the build instance for runID. A random
// suffix is used when runID is empty.
func Instance(prefix, runID string) string {
	suffix := strings.ReplaceAll(runID, "-", "")
	if suffix == "" {
		suffix = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(suffix) > suffixLen {
		suffix = suffix[:suffixLen]
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToLower(suffix))
}
