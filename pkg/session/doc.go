// Package session persists conversation transcripts for an agent runtime
// as append-only JSONL files, one per session, grouped by encoded working
// directory.
//
// Invariants:
// - Diff content blocks are never persisted.
// - Session metadata (type, recency, token totals) is derived from
//   filenames and single-record peeks, never from full transcript reads.
// - Recency is governed by record timestamps (file mtime for empty
//   sessions), never by id ordering.
// - Store operations are observable via tracing and metrics.
//
// Usage:
//
//	store, _ := session.New(session.Config{Root: "/tmp/seshat/sessions"})
//	id, _ := sessionid.New()
//	_ = store.AppendMessages(ctx, id, "/home/user/project", []sessionlog.Message{{
//		Role:   "user",
//		Blocks: []sessionlog.Block{{Type: sessionlog.BlockText, Content: "hello"}},
//	}})
//	messages, _ := store.LoadSession(ctx, id, "/home/user/project")
//	_ = messages
package session
