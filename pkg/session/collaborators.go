package session

import "context"

// Hook event names passed to a HookExecutor.
const (
	HookEventAppend = "session.append"
)

// HookExecutor is implemented by the hook-execution subsystem. The store
// only hands it a transcript path; process spawning, timeouts, and
// safety filtering live entirely on the other side of this interface.
type HookExecutor interface {
	RunHook(ctx context.Context, event, transcriptPath string) error
}
