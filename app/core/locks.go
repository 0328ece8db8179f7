package core

import (
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// SingleLock is an in-process try-lock keyed by string. One holder per
// key, no queueing: a second caller gets false and must give up. It
// does not coordinate across replicas; when two replicas race the same
// session, the unique (session_id, sequence) constraint fails the
// losing turn before anything is persisted.
type SingleLock struct {
	locks cmap.ConcurrentMap[string, struct{}]
}

func NewSingleLock() *SingleLock {
	return &SingleLock{
		locks: cmap.New[struct{}](),
	}
}

func (s *SingleLock) TryLock(key string) bool {
	return s.locks.SetIfAbsent(key, struct{}{})
}

func (s *SingleLock) Unlock(key string) {
	s.locks.Remove(key)
}

// SessionTurnKey guards a chat session so only one turn is in flight.
func SessionTurnKey(tenantID, sessionID string) string {
	return fmt.Sprintf("session:turn:%s:%s", tenantID, sessionID)
}

// DocumentWriteKey guards a document against concurrent re-ingestion.
func DocumentWriteKey(tenantID, documentID string) string {
	return fmt.Sprintf("document:write:%s:%s", tenantID, documentID)
}
