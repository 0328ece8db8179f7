package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type ChatSessionLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewChatSessionLogic(ctx context.Context, core *core.Core) *ChatSessionLogic {
	return &ChatSessionLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

func (l *ChatSessionLogic) CreateChatSession(courseID string) (string, error) {
	if _, err := NewCourseLogic(l.ctx, l.core).GetCourse(courseID); err != nil {
		return "", err
	}

	session := types.ChatSession{
		ID:       utils.GenUniqIDStr(),
		TenantID: l.TenantID(),
		CourseID: courseID,
		UserID:   l.UserID(),
		Status:   types.CHAT_SESSION_STATUS_CREATED,
	}

	if err := l.core.Store().ChatSessionStore().Create(l.ctx, session); err != nil {
		return "", errors.New("ChatSessionLogic.CreateChatSession.ChatSessionStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return session.ID, nil
}

// CheckChatSession loads the session and verifies ownership. A session
// of another user is treated as not found, never confirmed to exist.
func (l *ChatSessionLogic) CheckChatSession(sessionID string) (*types.ChatSession, error) {
	session, err := l.core.Store().ChatSessionStore().GetChatSession(l.ctx, l.TenantID(), sessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.CheckChatSession.ChatSessionStore.GetChatSession", i18n.ERROR_INTERNAL, err)
	}
	if session == nil || err == sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.CheckChatSession.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if session.UserID != l.UserID() {
		return nil, errors.New("ChatSessionLogic.CheckChatSession.unauth", i18n.ERROR_NOT_FOUND, nil).
			Code(http.StatusNotFound).Kind(errors.KindTenantIsolation)
	}

	return session, nil
}

// CheckLiveChatSession is CheckChatSession plus the lazy expiry check:
// a session idle past the timeout is flipped to expired on access.
func (l *ChatSessionLogic) CheckLiveChatSession(sessionID string) (*types.ChatSession, error) {
	session, err := l.CheckChatSession(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Expired() {
		return nil, errors.New("ChatSessionLogic.CheckLiveChatSession.expired", i18n.ERROR_SESSION_EXPIRED, nil).
			Code(http.StatusGone).Kind(errors.KindSessionExpired)
	}

	idleBound := time.Now().Unix() - l.core.Cfg().RAG.SessionIdleTimeoutSecond
	if session.IdleSince(idleBound) {
		if err := l.core.Store().ChatSessionStore().UpdateSessionStatus(l.ctx, l.TenantID(), session.ID, types.CHAT_SESSION_STATUS_EXPIRED); err != nil {
			return nil, errors.New("ChatSessionLogic.CheckLiveChatSession.UpdateSessionStatus", i18n.ERROR_INTERNAL, err)
		}
		return nil, errors.New("ChatSessionLogic.CheckLiveChatSession.idle", i18n.ERROR_SESSION_EXPIRED, nil).
			Code(http.StatusGone).Kind(errors.KindSessionExpired)
	}

	return session, nil
}

func (l *ChatSessionLogic) ListChatSessions(page, pageSize uint64) ([]types.ChatSession, error) {
	list, err := l.core.Store().ChatSessionStore().List(l.ctx, l.TenantID(), l.UserID(), page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.ListChatSessions.ChatSessionStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *ChatSessionLogic) ListSessionMessages(sessionID string, page, pageSize uint64) ([]types.ChatMessage, error) {
	if _, err := l.CheckChatSession(sessionID); err != nil {
		return nil, err
	}

	list, err := l.core.Store().ChatMessageStore().ListSessionMessages(l.ctx, l.TenantID(), sessionID, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatSessionLogic.ListSessionMessages.ChatMessageStore.ListSessionMessages", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

// CloseChatSession expires the session explicitly. History stays
// readable, only new turns are refused.
func (l *ChatSessionLogic) CloseChatSession(sessionID string) error {
	if _, err := l.CheckChatSession(sessionID); err != nil {
		return err
	}

	if err := l.core.Store().ChatSessionStore().UpdateSessionStatus(l.ctx, l.TenantID(), sessionID, types.CHAT_SESSION_STATUS_EXPIRED); err != nil {
		return errors.New("ChatSessionLogic.CloseChatSession.UpdateSessionStatus", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *ChatSessionLogic) DeleteChatSession(sessionID string) error {
	if _, err := l.CheckChatSession(sessionID); err != nil {
		return err
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChatSessionStore().Delete(ctx, l.TenantID(), sessionID); err != nil {
			return errors.New("ChatSessionLogic.DeleteChatSession.ChatSessionStore.Delete", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChatMessageStore().DeleteSessionMessages(ctx, l.TenantID(), sessionID); err != nil {
			return errors.New("ChatSessionLogic.DeleteChatSession.ChatMessageStore.DeleteSessionMessages", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}

func (l *ChatSessionLogic) RenameChatSession(sessionID, title string) error {
	if _, err := l.CheckChatSession(sessionID); err != nil {
		return err
	}

	if err := l.core.Store().ChatSessionStore().UpdateSessionTitle(l.ctx, l.TenantID(), sessionID, title); err != nil {
		return errors.New("ChatSessionLogic.RenameChatSession.UpdateSessionTitle", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// ExpireIdleSessions is the cron sweep across all tenants.
func ExpireIdleSessions(ctx context.Context, core *core.Core) (int64, error) {
	idleBound := time.Now().Unix() - core.Cfg().RAG.SessionIdleTimeoutSecond
	affected, err := core.Store().ChatSessionStore().ExpireIdleSessions(ctx, idleBound)
	if err != nil {
		return 0, errors.New("ExpireIdleSessions.ChatSessionStore.ExpireIdleSessions", i18n.ERROR_INTERNAL, err)
	}
	if affected > 0 {
		core.Metrics().SessionsExpiredAdd(float64(affected))
	}
	return affected, nil
}
