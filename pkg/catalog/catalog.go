// Package catalog answers "which sessions exist, which is most recent,
// which are expired" in time proportional to the session count, never to
// transcript size. Metadata comes from filename parsing plus single-record
// peeks; full transcript reads are never performed during listing.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seshat-ai/seshat/internal/observability"
	"github.com/seshat-ai/seshat/pkg/sessionlog"
	"github.com/seshat-ai/seshat/pkg/workdir"
)

// LogReader is the slice of the log store the catalog depends on. Tests
// wrap it to assert the listing cost contract (zero ReadAll calls, at
// most one peek of each kind per session).
type LogReader interface {
	PeekFirstRecord(path string) (*sessionlog.Message, error)
	PeekLastRecord(path string) (*sessionlog.Message, error)
	ReadAll(path string, opts sessionlog.ReadOptions) ([]sessionlog.Message, error)
}

type fsLogReader struct{}

func (fsLogReader) PeekFirstRecord(path string) (*sessionlog.Message, error) {
	return sessionlog.PeekFirstRecord(path)
}

func (fsLogReader) PeekLastRecord(path string) (*sessionlog.Message, error) {
	return sessionlog.PeekLastRecord(path)
}

func (fsLogReader) ReadAll(path string, opts sessionlog.ReadOptions) ([]sessionlog.Message, error) {
	return sessionlog.ReadAll(path, opts)
}

// Summary is the only projection the catalog materializes per session
// during a listing. It never includes message bodies.
type Summary struct {
	ID                string
	Type              sessionlog.SessionType
	Workdir           string
	LastActiveAt      time.Time
	StartedAt         time.Time
	LatestTotalTokens int

	path string
}

// ListOptions narrows a List call. Workdir selects one working
// directory; AllWorkdirs aggregates across every encoded project
// directory under the root.
type ListOptions struct {
	Workdir          string
	AllWorkdirs      bool
	IncludeSubagents bool
	WithStartedAt    bool
}

// LatestSession is a summary together with its full transcript.
type LatestSession struct {
	Summary  Summary
	Messages []sessionlog.Message
}

// Catalog scans the store root for session files.
type Catalog struct {
	root string
	logs LogReader
}

// New creates a catalog over the given store root.
func New(root string) *Catalog {
	return &Catalog{root: root, logs: fsLogReader{}}
}

// NewWithLogReader creates a catalog with a custom log reader.
func NewWithLogReader(root string, logs LogReader) *Catalog {
	return &Catalog{root: root, logs: logs}
}

type scanTarget struct {
	workdir string
	dir     string
}

func (c *Catalog) targets(opts ListOptions) ([]scanTarget, error) {
	if !opts.AllWorkdirs {
		name, _ := workdir.Encode(opts.Workdir)
		return []scanTarget{{workdir: opts.Workdir, dir: filepath.Join(c.root, name)}}, nil
	}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read store root %s: %w", c.root, err)
	}

	var targets []scanTarget
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		original, err := workdir.Decode(c.root, entry.Name())
		if err != nil {
			log.Warn().Str("dir", entry.Name()).Err(err).Msg("Skipping undecodable project directory")
			continue
		}
		targets = append(targets, scanTarget{workdir: original, dir: filepath.Join(c.root, entry.Name())})
	}
	return targets, nil
}

// List enumerates sessions as summaries, sorted by last activity,
// newest first (ties broken by id, descending). Subagent sessions are
// excluded unless opts.IncludeSubagents is set. Entries whose last
// record cannot be parsed are skipped, never aborting the listing.
func (c *Catalog) List(opts ListOptions) ([]Summary, error) {
	start := time.Now()
	defer func() {
		observability.RecordCatalogList(time.Since(start))
	}()

	targets, err := c.targets(opts)
	if err != nil {
		return nil, err
	}

	var summaries []Summary
	for _, target := range targets {
		entries, err := os.ReadDir(target.dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read project directory %s: %w", target.dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			id, typ, ok := sessionlog.ParseFilename(entry.Name())
			if !ok {
				continue
			}
			if typ == sessionlog.TypeSubagent && !opts.IncludeSubagents {
				continue
			}

			path := filepath.Join(target.dir, entry.Name())
			summary, ok, err := c.summarize(entry, id, typ, target.workdir, path, opts.WithStartedAt)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastActiveAt.Equal(summaries[j].LastActiveAt) {
			return summaries[i].LastActiveAt.After(summaries[j].LastActiveAt)
		}
		return summaries[i].ID > summaries[j].ID
	})

	return summaries, nil
}

// summarize derives a Summary from at most one last-record peek and, on
// request, one first-record peek. A corrupted peek skips the entry;
// other IO failures abort the listing so environment problems never look
// like missing sessions.
func (c *Catalog) summarize(entry os.DirEntry, id string, typ sessionlog.SessionType, originalWorkdir, path string, withStartedAt bool) (Summary, bool, error) {
	summary := Summary{
		ID:      id,
		Type:    typ,
		Workdir: originalWorkdir,
		path:    path,
	}

	observability.RecordPeek("last")
	last, err := c.logs.PeekLastRecord(path)
	if err != nil {
		if errors.Is(err, sessionlog.ErrCorrupted) {
			log.Warn().Str("session_id", id).Str("path", path).Err(err).Msg("Skipping session with corrupted last record")
			return Summary{}, false, nil
		}
		return Summary{}, false, err
	}

	if last != nil {
		summary.LastActiveAt = last.Timestamp
		if last.Usage != nil {
			summary.LatestTotalTokens = last.Usage.TotalTokens
		}
	} else {
		// Registered but empty: fall back to file modification time.
		info, err := entry.Info()
		if err != nil {
			return Summary{}, false, fmt.Errorf("failed to stat session file %s: %w", path, err)
		}
		summary.LastActiveAt = info.ModTime()
	}

	if withStartedAt {
		observability.RecordPeek("first")
		first, err := c.logs.PeekFirstRecord(path)
		switch {
		case err == nil && first != nil:
			summary.StartedAt = first.Timestamp
		case err != nil && !errors.Is(err, sessionlog.ErrCorrupted):
			return Summary{}, false, err
		default:
			if info, ierr := entry.Info(); ierr == nil {
				summary.StartedAt = info.ModTime()
			}
		}
	}

	return summary, true, nil
}

// Latest resolves the most recently active session for one workdir and
// materializes its full transcript with a single ReadAll. It returns nil
// when the workdir has no sessions.
func (c *Catalog) Latest(workdirPath string) (*LatestSession, error) {
	summaries, err := c.List(ListOptions{Workdir: workdirPath})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	top := summaries[0]
	messages, err := c.logs.ReadAll(top.path, sessionlog.ReadOptions{})
	if err != nil {
		return nil, err
	}

	return &LatestSession{Summary: top, Messages: messages}, nil
}

// ProbeSession checks whether a session exists in the project directory,
// trying the main naming scheme first, then the subagent one. Callers
// frequently do not know a session's type in advance.
func ProbeSession(dir, id string) (path string, typ sessionlog.SessionType, found bool, err error) {
	for _, candidate := range []sessionlog.SessionType{sessionlog.TypeMain, sessionlog.TypeSubagent} {
		name, err := sessionlog.GenerateFilename(id, candidate)
		if err != nil {
			return "", "", false, err
		}

		candidatePath := filepath.Join(dir, name)
		if _, err := os.Stat(candidatePath); err == nil {
			return candidatePath, candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", "", false, fmt.Errorf("failed to stat session file %s: %w", candidatePath, err)
		}
	}
	return "", "", false, nil
}
