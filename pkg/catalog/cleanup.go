package catalog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seshat-ai/seshat/internal/observability"
	"github.com/seshat-ai/seshat/pkg/workdir"
)

// CleanupExpired deletes every session (main and subagent, across all
// workdirs) whose last activity predates the retention window, removing
// project directories left empty afterwards. Per-file failures are
// swallowed; only the count of confirmed deletions is returned.
func (c *Catalog) CleanupExpired(retention time.Duration) (int, error) {
	summaries, err := c.List(ListOptions{AllWorkdirs: true, IncludeSubagents: true})
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0
	touched := make(map[string]bool)

	for _, summary := range summaries {
		if !summary.LastActiveAt.Before(cutoff) {
			continue
		}

		if err := os.Remove(summary.path); err != nil {
			log.Warn().Str("session_id", summary.ID).Str("path", summary.path).Err(err).Msg("Failed to delete expired session")
			continue
		}
		deleted++
		touched[filepath.Dir(summary.path)] = true

		log.Debug().
			Str("session_id", summary.ID).
			Time("last_active_at", summary.LastActiveAt).
			Msg("Expired session deleted")
	}

	for dir := range touched {
		pruneEmptyProjectDir(dir)
	}

	if deleted > 0 {
		observability.RecordCleanupDeleted(deleted)
		log.Info().Int("deleted", deleted).Dur("retention", retention).Msg("Cleaned up expired sessions")
	}

	return deleted, nil
}

// pruneEmptyProjectDir removes a project directory holding no session
// files. A workdir marker file alone does not keep the directory alive.
func pruneEmptyProjectDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.Name() != workdir.MarkerFile {
			return
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("Failed to remove empty project directory")
	}
}
