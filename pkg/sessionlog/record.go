package sessionlog

import "time"

// SessionType distinguishes top-level conversations from subagent
// sub-conversations.
type SessionType string

const (
	TypeMain     SessionType = "main"
	TypeSubagent SessionType = "subagent"
)

// BlockType identifies the kind of a content block within a message.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolCall   BlockType = "tool_call"
	BlockToolResult BlockType = "tool_result"
	BlockDiff       BlockType = "diff"
)

// Block is one typed content block of a message.
type Block struct {
	Type       BlockType              `json:"type"`
	Content    string                 `json:"content,omitempty"`
	ToolCallID string                 `json:"tool_call_id,omitempty"`
	ToolName   string                 `json:"tool_name,omitempty"`
	Input      map[string]interface{} `json:"input,omitempty"`
}

// Usage holds token accounting for one message.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message is a single conversation turn, persisted as one JSONL record.
type Message struct {
	Role      string                 `json:"role"`
	Blocks    []Block                `json:"blocks"`
	Usage     *Usage                 `json:"usage,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// stripDiffBlocks removes diff blocks from each message and drops
// messages left with no blocks. The caller's messages are not mutated.
func stripDiffBlocks(messages []Message) []Message {
	surviving := make([]Message, 0, len(messages))
	for _, msg := range messages {
		blocks := make([]Block, 0, len(msg.Blocks))
		for _, b := range msg.Blocks {
			if b.Type == BlockDiff {
				continue
			}
			blocks = append(blocks, b)
		}
		if len(blocks) == 0 {
			continue
		}
		msg.Blocks = blocks
		surviving = append(surviving, msg)
	}
	return surviving
}
