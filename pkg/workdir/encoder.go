// Package workdir maps working-directory paths to filesystem-safe,
// reversible project directory names under the store root.
package workdir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// maxEncodedLen keeps encoded names well under common filesystem
	// name limits (255 bytes on ext4/APFS).
	maxEncodedLen = 200
	hashLen       = 12
)

// MarkerFile holds the original workdir path inside a project directory
// whose encoded name had to be truncated.
const MarkerFile = "workdir"

// ProjectDirectory describes the encoded mapping for one workdir.
type ProjectDirectory struct {
	OriginalPath  string
	EncodedName   string
	EncodedPath   string
	CollisionHash string
	IsSymlink     bool
}

// Encode returns the encoded directory name for workdir and, when the
// name had to be truncated, the collision-avoidance hash suffix. The
// encoding is deterministic and injective: distinct workdirs never map
// to the same name.
func Encode(workdir string) (name, collisionHash string) {
	escaped := url.PathEscape(workdir)
	if len(escaped) <= maxEncodedLen {
		return escaped, ""
	}

	sum := sha256.Sum256([]byte(workdir))
	collisionHash = hex.EncodeToString(sum[:])[:hashLen]
	name = escaped[:maxEncodedLen-hashLen-1] + "-" + collisionHash
	return name, collisionHash
}

// Resolve maps workdir to its project directory under root, creating the
// directory if missing. Repeated calls for the same workdir are
// idempotent and never fail with an "already exists" error.
func Resolve(workdir, root string) (ProjectDirectory, error) {
	name, collisionHash := Encode(workdir)
	encodedPath := filepath.Join(root, name)

	if err := os.MkdirAll(encodedPath, 0700); err != nil {
		return ProjectDirectory{}, fmt.Errorf("failed to create project directory %s: %w", encodedPath, err)
	}

	if collisionHash != "" {
		// Truncated names are not reversible from the name alone;
		// persist the original path so Decode stays exact.
		markerPath := filepath.Join(encodedPath, MarkerFile)
		if _, err := os.Stat(markerPath); os.IsNotExist(err) {
			if err := os.WriteFile(markerPath, []byte(workdir+"\n"), 0600); err != nil {
				return ProjectDirectory{}, fmt.Errorf("failed to write workdir marker %s: %w", markerPath, err)
			}
			log.Debug().Str("workdir", workdir).Str("encoded", name).Msg("Truncated workdir encoding, marker written")
		}
	}

	dir := ProjectDirectory{
		OriginalPath:  workdir,
		EncodedName:   name,
		EncodedPath:   encodedPath,
		CollisionHash: collisionHash,
	}

	if info, err := os.Lstat(workdir); err == nil {
		dir.IsSymlink = info.Mode()&os.ModeSymlink != 0
	}

	return dir, nil
}

// Decode recovers the original workdir path from an encoded directory
// name under root. Truncated encodings are resolved through the marker
// file written at creation time.
func Decode(root, encodedName string) (string, error) {
	markerPath := filepath.Join(root, encodedName, MarkerFile)
	if data, err := os.ReadFile(markerPath); err == nil {
		return strings.TrimRight(string(data), "\n"), nil
	}

	original, err := url.PathUnescape(encodedName)
	if err != nil {
		return "", fmt.Errorf("failed to decode project directory name %q: %w", encodedName, err)
	}
	return original, nil
}
