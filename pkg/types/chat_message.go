package types

import (
	"encoding/json"
	"fmt"
)

type MessageUserRole string

const (
	USER_ROLE_SYSTEM    MessageUserRole = "system"
	USER_ROLE_USER      MessageUserRole = "user"
	USER_ROLE_ASSISTANT MessageUserRole = "assistant"
)

func (r MessageUserRole) String() string {
	return string(r)
}

// ChatMessage is immutable once written. ChunkRefs records which chunk
// ids backed an assistant reply, for provenance.
type ChatMessage struct {
	ID         string          `json:"id" db:"id"`
	TenantID   string          `json:"tenant_id" db:"tenant_id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Role       MessageUserRole `json:"role" db:"role"`
	Message    string          `json:"message" db:"message"`
	ChunkRefs  ChunkRefs       `json:"chunk_refs" db:"chunk_refs"`
	TokenCount int             `json:"token_count" db:"token_count"`
	Sequence   int64           `json:"sequence" db:"sequence"`
	SendTime   int64           `json:"send_time" db:"send_time"`
}

type ChunkRefs []string

func (s ChunkRefs) Value() (interface{}, error) {
	if s == nil {
		s = ChunkRefs{}
	}
	return json.Marshal(s)
}

func (s *ChunkRefs) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}
	return fmt.Errorf("pq: cannot convert %T to ChunkRefs", src)
}

func (s *ChunkRefs) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = ChunkRefs{}
		return nil
	}
	return json.Unmarshal(src, s)
}
