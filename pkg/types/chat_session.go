package types

type ChatSessionStatus int8

const (
	CHAT_SESSION_STATUS_CREATED ChatSessionStatus = 1
	CHAT_SESSION_STATUS_ACTIVE  ChatSessionStatus = 2
	CHAT_SESSION_STATUS_EXPIRED ChatSessionStatus = 3
)

// ChatSession lifecycle: CREATED on creation, ACTIVE after the first
// message, EXPIRED after the idle timeout or an explicit close.
// EXPIRED is terminal.
type ChatSession struct {
	ID               string            `json:"id" db:"id"`
	TenantID         string            `json:"tenant_id" db:"tenant_id"`
	CourseID         string            `json:"course_id" db:"course_id"`
	UserID           string            `json:"user_id" db:"user_id"`
	Title            string            `json:"title" db:"title"`
	Status           ChatSessionStatus `json:"status" db:"status"`
	CreatedAt        int64             `json:"created_at" db:"created_at"`
	LatestAccessTime int64             `json:"latest_access_time" db:"latest_access_time"`
}

func (s *ChatSession) Expired() bool {
	return s.Status == CHAT_SESSION_STATUS_EXPIRED
}

// IdleSince reports whether the session has been idle past the given
// unix timestamp bound.
func (s *ChatSession) IdleSince(bound int64) bool {
	return s.LatestAccessTime < bound
}
