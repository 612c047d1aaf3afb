package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/seshat-ai/seshat/internal/observability"
	"github.com/seshat-ai/seshat/internal/tracing"
	"github.com/seshat-ai/seshat/pkg/catalog"
	"github.com/seshat-ai/seshat/pkg/sessionlog"
	"github.com/seshat-ai/seshat/pkg/workdir"
)

const (
	tracerName = "seshat.session"

	// DefaultRetention is the expiry window for cleanup.
	DefaultRetention = 30 * 24 * time.Hour
)

// Config configures a Store.
type Config struct {
	// Root is the store's base directory. Defaults to
	// ~/.seshat/sessions. Tests always inject an isolated root.
	Root string

	// Retention is the expiry window for CleanupExpiredSessions.
	Retention time.Duration

	// EnableCleanup arms CleanupExpiredSessions. Outside
	// production-like runtime contexts cleanup is a guarded no-op.
	EnableCleanup bool

	// Hooks, when set, is notified after each successful append.
	Hooks HookExecutor
}

// Store is the session lifecycle façade: it resolves working directories
// to encoded project directories and delegates to the log store and the
// catalog.
type Store struct {
	root           string
	retention      time.Duration
	cleanupEnabled bool
	hooks          HookExecutor
	catalog        *catalog.Catalog
}

// New creates a session store rooted at cfg.Root.
func New(cfg Config) (*Store, error) {
	observability.EnsureRegistered()

	root := cfg.Root
	if root == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(homeDir, ".seshat", "sessions")
	}

	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}

	s := &Store{
		root:           root,
		retention:      retention,
		cleanupEnabled: cfg.EnableCleanup,
		hooks:          cfg.Hooks,
		catalog:        catalog.New(root),
	}

	log.Info().Str("root", root).Dur("retention", retention).Msg("Session store initialized")
	s.updateActiveSessionsMetric()

	return s, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// projectDir returns the encoded project directory path for a workdir
// without creating anything on disk.
func (s *Store) projectDir(workdirPath string) string {
	name, _ := workdir.Encode(workdirPath)
	return filepath.Join(s.root, name)
}

// findSession locates an existing session file for id under workdirPath,
// trying main naming first, then subagent.
func (s *Store) findSession(id, workdirPath string) (string, sessionlog.SessionType, bool, error) {
	return catalog.ProbeSession(s.projectDir(workdirPath), id)
}

func (s *Store) updateActiveSessionsMetric() {
	summaries, err := s.catalog.List(catalog.ListOptions{AllWorkdirs: true, IncludeSubagents: true})
	if err != nil {
		return
	}
	observability.SetActiveSessions(len(summaries))
}

// CreateSession registers a session of the given type without requiring
// any message. Creating an already-registered session succeeds.
func (s *Store) CreateSession(ctx context.Context, id, workdirPath string, typ sessionlog.SessionType) error {
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.create",
		attribute.String("session_id", id),
		attribute.String("workdir", workdirPath),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	name, err := sessionlog.GenerateFilename(id, typ)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	dir, err := workdir.Resolve(workdirPath, s.root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := sessionlog.Touch(filepath.Join(dir.EncodedPath, name)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.updateActiveSessionsMetric()
	logger.Info().Str("type", string(typ)).Msg("Session created")

	return nil
}

// AppendMessages appends the given messages to a session's transcript,
// registering the session (as main) if it does not exist yet. An empty
// message list performs no IO and leaves session existence unchanged.
// Diff blocks are stripped before persisting; the caller's slice is not
// modified.
func (s *Store) AppendMessages(ctx context.Context, id, workdirPath string, messages []sessionlog.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.append_messages",
		attribute.String("session_id", id),
		attribute.String("workdir", workdirPath),
		attribute.Int("message_count", len(messages)),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()
	defer func() {
		observability.RecordSessionSave(time.Since(start))
	}()

	dir, err := workdir.Resolve(workdirPath, s.root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	path, _, found, err := catalog.ProbeSession(dir.EncodedPath, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !found {
		name, err := sessionlog.GenerateFilename(id, sessionlog.TypeMain)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		path = filepath.Join(dir.EncodedPath, name)
	}

	if err := sessionlog.AppendRecords(path, messages); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if s.hooks != nil {
		// Hook failures never fail the append.
		if err := s.hooks.RunHook(ctx, HookEventAppend, path); err != nil {
			logger.Warn().Err(err).Msg("Append hook failed")
		}
	}

	logger.Debug().Int("messages", len(messages)).Msg("Messages appended")

	return nil
}

// LoadSession returns a session's full transcript. A missing or
// corrupted session yields an empty result, never an error: both look
// like "no history available" to the caller.
func (s *Store) LoadSession(ctx context.Context, id, workdirPath string) ([]sessionlog.Message, error) {
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.load",
		attribute.String("session_id", id),
		attribute.String("workdir", workdirPath),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()
	defer func() {
		observability.RecordSessionLoad(time.Since(start))
	}()

	path, _, found, err := s.findSession(id, workdirPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !found {
		logger.Debug().Msg("Session does not exist")
		return nil, nil
	}

	messages, err := sessionlog.ReadAll(path, sessionlog.ReadOptions{})
	if err != nil {
		if errors.Is(err, sessionlog.ErrNotFound) {
			return nil, nil
		}
		if errors.Is(err, sessionlog.ErrCorrupted) {
			logger.Warn().Str("path", path).Msg("Session transcript corrupted, treating as empty")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Debug().Int("messages", len(messages)).Msg("Session loaded")

	return messages, nil
}

// ListSessions lists session summaries, newest first.
func (s *Store) ListSessions(ctx context.Context, opts catalog.ListOptions) ([]catalog.Summary, error) {
	_, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.list",
		attribute.String("workdir", opts.Workdir),
		attribute.Bool("all_workdirs", opts.AllWorkdirs),
	)
	defer span.End()

	summaries, err := s.catalog.List(opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return summaries, nil
}

// GetLatestSession returns the most recently active session under
// workdirPath with its full transcript, or nil when none exists. A
// corrupted latest transcript is treated as no history.
func (s *Store) GetLatestSession(ctx context.Context, workdirPath string) (*catalog.LatestSession, error) {
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.latest",
		attribute.String("workdir", workdirPath),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	latest, err := s.catalog.Latest(workdirPath)
	if err != nil {
		if errors.Is(err, sessionlog.ErrNotFound) || errors.Is(err, sessionlog.ErrCorrupted) {
			logger.Warn().Err(err).Msg("Latest session unreadable, treating as empty")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return latest, nil
}

// DeleteSession removes a session's transcript. It reports whether a
// file was actually deleted; deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id, workdirPath string) (bool, error) {
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.delete",
		attribute.String("session_id", id),
		attribute.String("workdir", workdirPath),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	path, _, found, err := s.findSession(id, workdirPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to delete session file %s: %w", path, err)
	}

	s.updateActiveSessionsMetric()
	logger.Info().Msg("Session deleted")

	return true, nil
}

// SessionExists reports whether a session of either type is registered
// for id under workdirPath.
func (s *Store) SessionExists(ctx context.Context, id, workdirPath string) (bool, error) {
	_, _, found, err := s.findSession(id, workdirPath)
	return found, err
}

// CleanupExpiredSessions deletes sessions whose last activity predates
// the retention window. It is a guarded no-op returning 0 unless cleanup
// was enabled at construction.
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.cleanup")
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	if !s.cleanupEnabled {
		logger.Debug().Msg("Cleanup disabled, skipping")
		return 0, nil
	}

	deleted, err := s.catalog.CleanupExpired(s.retention)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	if deleted > 0 {
		s.updateActiveSessionsMetric()
	}

	return deleted, nil
}

// TranscriptPath returns the on-disk transcript path for a session,
// for collaborators that pass it into external process contexts. The
// path is derived from id and workdir alone; for unregistered sessions
// it is the main-type path the session would occupy.
func (s *Store) TranscriptPath(id, workdirPath string) (string, error) {
	path, _, found, err := s.findSession(id, workdirPath)
	if err != nil {
		return "", err
	}
	if found {
		return path, nil
	}

	name, err := sessionlog.GenerateFilename(id, sessionlog.TypeMain)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.projectDir(workdirPath), name), nil
}
