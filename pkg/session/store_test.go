package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seshat-ai/seshat/pkg/catalog"
	"github.com/seshat-ai/seshat/pkg/sessionlog"
)

func setupTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	store, err := New(cfg)
	require.NoError(t, err)
	return store
}

func textMessage(role, content string) sessionlog.Message {
	return sessionlog.Message{
		Role:   role,
		Blocks: []sessionlog.Block{{Type: sessionlog.BlockText, Content: content}},
	}
}

func TestStore_AppendAndLoad(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	err := store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{textMessage("user", "hi")})
	require.NoError(t, err)

	messages, err := store.LoadSession(ctx, "id1", "/work")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "hi", messages[0].Blocks[0].Content)
}

func TestStore_RoundTripPreservesOrder(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	input := []sessionlog.Message{
		textMessage("user", "one"),
		textMessage("assistant", "two"),
		textMessage("user", "three"),
	}
	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", input))

	messages, err := store.LoadSession(ctx, "id1", "/work")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i := range input {
		assert.Equal(t, input[i].Role, messages[i].Role)
		assert.Equal(t, input[i].Blocks[0].Content, messages[i].Blocks[0].Content)
	}
}

func TestStore_EmptyAppendIsNoOp(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id2", "/work", nil))

	exists, err := store.SessionExists(ctx, "id2", "/work")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_DiffFiltering(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	messages := []sessionlog.Message{
		{
			Role: "assistant",
			Blocks: []sessionlog.Block{
				{Type: sessionlog.BlockText, Content: "keep"},
				{Type: sessionlog.BlockDiff, Content: "drop"},
			},
		},
		{
			Role:   "assistant",
			Blocks: []sessionlog.Block{{Type: sessionlog.BlockDiff, Content: "drop"}},
		},
	}
	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", messages))

	loaded, err := store.LoadSession(ctx, "id1", "/work")
	require.NoError(t, err)
	require.Len(t, loaded, 1, "diff-only message must not survive a save/load cycle")
	require.Len(t, loaded[0].Blocks, 1)
	assert.Equal(t, "keep", loaded[0].Blocks[0].Content)

	// Caller's view keeps the diff blocks.
	assert.Len(t, messages[0].Blocks, 2)
}

func TestStore_LoadNeverCreated(t *testing.T) {
	store := setupTestStore(t, Config{})

	messages, err := store.LoadSession(context.Background(), "ghost1", "/work")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_LoadCorruptedIsEmpty(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{textMessage("user", "hi")}))

	path, err := store.TranscriptPath("id1", "/work")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0600))

	messages, err := store.LoadSession(ctx, "id1", "/work")
	require.NoError(t, err, "corruption must not escape the facade")
	assert.Empty(t, messages)
}

func TestStore_CreateSession(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, "id1", "/work", sessionlog.TypeMain))

	exists, err := store.SessionExists(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.True(t, exists)

	// Registered with zero messages: loads as empty, not as an error.
	messages, err := store.LoadSession(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Idempotent.
	require.NoError(t, store.CreateSession(ctx, "id1", "/work", sessionlog.TypeMain))
}

func TestStore_SubagentSessions(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, "subsess", "/work", sessionlog.TypeSubagent))
	require.NoError(t, store.AppendMessages(ctx, "subsess", "/work", []sessionlog.Message{textMessage("user", "hi")}))

	// Existence and load find the session without knowing its type.
	exists, err := store.SessionExists(ctx, "subsess", "/work")
	require.NoError(t, err)
	assert.True(t, exists)

	messages, err := store.LoadSession(ctx, "subsess", "/work")
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	// Hidden from default listings, visible when requested.
	summaries, err := store.ListSessions(ctx, catalog.ListOptions{Workdir: "/work"})
	require.NoError(t, err)
	assert.Empty(t, summaries)

	summaries, err = store.ListSessions(ctx, catalog.ListOptions{Workdir: "/work", IncludeSubagents: true})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, sessionlog.TypeSubagent, summaries[0].Type)
}

func TestStore_ListSessions_Recency(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	older := textMessage("user", "old")
	older.Timestamp = t1
	newer := textMessage("user", "new")
	newer.Timestamp = t2

	require.NoError(t, store.AppendMessages(ctx, "older1", "/work", []sessionlog.Message{older}))
	require.NoError(t, store.AppendMessages(ctx, "newer1", "/work", []sessionlog.Message{newer}))

	summaries, err := store.ListSessions(ctx, catalog.ListOptions{Workdir: "/work"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer1", summaries[0].ID)
	assert.Equal(t, "older1", summaries[1].ID)
}

func TestStore_GetLatestSession(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	latest, err := store.GetLatestSession(ctx, "/work")
	require.NoError(t, err)
	assert.Nil(t, latest)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	older := textMessage("user", "old")
	older.Timestamp = t1
	newer := textMessage("user", "new")
	newer.Timestamp = t1.Add(time.Hour)

	require.NoError(t, store.AppendMessages(ctx, "older1", "/work", []sessionlog.Message{older}))
	require.NoError(t, store.AppendMessages(ctx, "newer1", "/work", []sessionlog.Message{newer}))

	latest, err = store.GetLatestSession(ctx, "/work")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "newer1", latest.Summary.ID)
	require.Len(t, latest.Messages, 1)
	assert.Equal(t, "new", latest.Messages[0].Blocks[0].Content)
}

func TestStore_DeleteSessionTwice(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{textMessage("user", "hi")}))

	deleted, err := store.DeleteSession(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteSession(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.False(t, deleted, "second delete reports nothing to delete")
}

func TestStore_IdempotentWorkdirCreation(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{textMessage("user", "a")}))
	require.NoError(t, store.AppendMessages(ctx, "id2", "/work", []sessionlog.Message{textMessage("user", "b")}))
	require.NoError(t, store.CreateSession(ctx, "id3", "/work", sessionlog.TypeMain))
}

func TestStore_CleanupGuardedByDefault(t *testing.T) {
	store := setupTestStore(t, Config{Retention: time.Nanosecond})
	ctx := context.Background()

	old := textMessage("user", "ancient")
	old.Timestamp = time.Now().Add(-365 * 24 * time.Hour)
	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{old}))

	deleted, err := store.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "cleanup must be a no-op unless enabled")

	exists, err := store.SessionExists(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_CleanupEnabled(t *testing.T) {
	store := setupTestStore(t, Config{Retention: 30 * 24 * time.Hour, EnableCleanup: true})
	ctx := context.Background()

	old := textMessage("user", "ancient")
	old.Timestamp = time.Now().Add(-365 * 24 * time.Hour)
	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{old}))
	require.NoError(t, store.AppendMessages(ctx, "id2", "/work", []sessionlog.Message{textMessage("user", "fresh")}))

	deleted, err := store.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	exists, err := store.SessionExists(ctx, "id1", "/work")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.SessionExists(ctx, "id2", "/work")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_TranscriptPath(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	// Stable for unregistered sessions.
	path, err := store.TranscriptPath("id1", "/work")
	require.NoError(t, err)
	assert.Contains(t, path, "id1.jsonl")

	require.NoError(t, store.CreateSession(ctx, "subsess", "/work", sessionlog.TypeSubagent))
	path, err = store.TranscriptPath("subsess", "/work")
	require.NoError(t, err)
	assert.Contains(t, path, "subagent-subsess.jsonl")
}

func TestStore_InvalidIDPropagates(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	err := store.CreateSession(ctx, "../escape", "/work", sessionlog.TypeMain)
	assert.ErrorIs(t, err, sessionlog.ErrInvalidID)

	_, err = store.LoadSession(ctx, "../escape", "/work")
	assert.ErrorIs(t, err, sessionlog.ErrInvalidID)
}

type recordingHooks struct {
	mu     sync.Mutex
	events []string
	paths  []string
}

func (h *recordingHooks) RunHook(_ context.Context, event, transcriptPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	h.paths = append(h.paths, transcriptPath)
	return nil
}

func TestStore_HooksNotifiedOnAppend(t *testing.T) {
	hooks := &recordingHooks{}
	store := setupTestStore(t, Config{Hooks: hooks})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id1", "/work", []sessionlog.Message{textMessage("user", "hi")}))

	require.Len(t, hooks.events, 1)
	assert.Equal(t, HookEventAppend, hooks.events[0])

	expected, err := store.TranscriptPath("id1", "/work")
	require.NoError(t, err)
	assert.Equal(t, expected, hooks.paths[0])
}

func TestStore_PathWithSpacesRoundTrip(t *testing.T) {
	store := setupTestStore(t, Config{})
	ctx := context.Background()

	require.NoError(t, store.AppendMessages(ctx, "id1", "/path with spaces", []sessionlog.Message{textMessage("user", "hi")}))

	summaries, err := store.ListSessions(ctx, catalog.ListOptions{AllWorkdirs: true})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "/path with spaces", summaries[0].Workdir)
}
