package memory

import (
	"context"
	"time"
)

// Role is the author of a memory record.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Scope identifies whose memory is being read or written.
type Scope struct {
	MemoryID string `json:"memory_id" yaml:"memory_id"`
	UserID   string `json:"user_id" yaml:"user_id"`
}

// DefaultScope matches the single-user deployment of the study assistant.
var DefaultScope = Scope{MemoryID: "agente_estudos", UserID: "usuario1"}

// Record is a single stored message. Records are never mutated once written.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}

// Message is an unsaved record.
type Message struct {
	Role    Role
	Content string
}

// SearchQuery controls a backend search.
type SearchQuery struct {
	Text string
	// After, when set, restricts results to records created at or after it.
	// Backends may ignore it; Store filters again.
	After *time.Time
	Limit int
}

// Backend is a memory service keyed by scope.
type Backend interface {
	// Add stores messages in order and returns the created records.
	Add(ctx context.Context, scope Scope, msgs []Message) ([]Record, error)
	Search(ctx context.Context, scope Scope, q SearchQuery) ([]Record, error)
}

// Lister is implemented by backends that can enumerate a scope without a query.
type Lister interface {
	List(ctx context.Context, scope Scope) ([]Record, error)
}
