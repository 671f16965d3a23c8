// Package conversation defines the turn types shared by the pruning and
// memory-compression layers.
package conversation

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation. Turns are append-only and
// treated as immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Tokens caches an estimate for this turn; 0 means not yet counted.
	Tokens int `json:"tokens,omitempty"`
}

// IsSystem reports whether the turn carries system instructions.
func (t Turn) IsSystem() bool { return t.Role == RoleSystem }
