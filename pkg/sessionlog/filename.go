package sessionlog

import (
	"fmt"
	"strings"

	"github.com/seshat-ai/seshat/pkg/sessionid"
)

const (
	fileExt        = ".jsonl"
	subagentPrefix = "subagent-"
)

// GenerateFilename returns the on-disk filename for a session. The
// mapping is pure and IO-free: main sessions are "<id>.jsonl", subagent
// sessions "subagent-<id>.jsonl".
func GenerateFilename(id string, typ SessionType) (string, error) {
	if !sessionid.IsValid(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	switch typ {
	case TypeMain:
		return id + fileExt, nil
	case TypeSubagent:
		return subagentPrefix + id + fileExt, nil
	default:
		return "", fmt.Errorf("unknown session type: %q", typ)
	}
}

// ParseFilename recovers (id, type) from a session filename. It is the
// exact inverse of GenerateFilename for every valid (id, type) pair.
func ParseFilename(name string) (id string, typ SessionType, ok bool) {
	if !strings.HasSuffix(name, fileExt) {
		return "", "", false
	}

	id = strings.TrimSuffix(name, fileExt)
	typ = TypeMain
	if strings.HasPrefix(id, subagentPrefix) {
		id = strings.TrimPrefix(id, subagentPrefix)
		typ = TypeSubagent
	}

	if !sessionid.IsValid(id) {
		return "", "", false
	}
	return id, typ, true
}

// IsValidFilename reports whether name is a well-formed session
// filename.
func IsValidFilename(name string) bool {
	_, _, ok := ParseFilename(name)
	return ok
}
