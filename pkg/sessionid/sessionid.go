// Package sessionid generates unique session identifiers.
//
// Identifiers are random tokens, not timestamps: callers must never infer
// recency from id ordering. Recency always comes from record timestamps.
package sessionid

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	groupLen  = 6
	numGroups = 3
)

// idPattern matches lowercase alphanumeric segments joined by single hyphens.
var idPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// New returns a fixed-length, lowercase, hyphen-grouped session id,
// e.g. "k2x9qa-07fmzp-w3r8dd".
func New() (string, error) {
	groups := make([]string, 0, numGroups)
	for i := 0; i < numGroups; i++ {
		g, err := gonanoid.Generate(alphabet, groupLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate session id: %w", err)
		}
		groups = append(groups, g)
	}
	return strings.Join(groups, "-"), nil
}

// IsValid reports whether id is a well-formed session id. The "subagent-"
// prefix is reserved by the on-disk naming scheme and is never a valid id.
func IsValid(id string) bool {
	if id == "" || strings.HasPrefix(id, "subagent-") {
		return false
	}
	return idPattern.MatchString(id)
}
