package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/ai"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/safe"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

type SendMessageResult struct {
	MessageID string   `json:"message_id"`
	Message   string   `json:"message"`
	ChunkRefs []string `json:"chunk_refs"`
	Sequence  int64    `json:"sequence"`
	Usage     ai.Usage `json:"usage"`
}

// SendMessage runs one tutoring turn: retrieve, assemble, generate,
// persist. Only one turn per session may be in flight, a second caller
// is refused instead of queued. Both messages of the turn are written
// in a single transaction so the sequence never shows a user question
// without its answer slot or vice versa.
func (l *ChatLogic) SendMessage(sessionID, message string) (*SendMessageResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("ChatLogic.SendMessage.empty", i18n.ERROR_INVALID_ARGUMENT, nil).Code(http.StatusBadRequest)
	}

	session, err := NewChatSessionLogic(l.ctx, l.core).CheckLiveChatSession(sessionID)
	if err != nil {
		return nil, err
	}

	lockKey := core.SessionTurnKey(l.TenantID(), sessionID)
	if !l.core.SessionLocks().TryLock(lockKey) {
		return nil, errors.New("ChatLogic.SendMessage.inflight", i18n.ERROR_TURN_IN_FLIGHT, nil).
			Code(http.StatusConflict).Kind(errors.KindTurnInFlight)
	}
	defer l.core.SessionLocks().Unlock(lockKey)

	chunks, err := NewRetrieveLogic(l.ctx, l.core).Retrieve(session.CourseID, message, 0)
	if err != nil {
		// Retrieval failing should not kill the turn, the tutor can
		// still answer without material.
		slog.Error("retrieval failed, answering without course material",
			slog.String("session_id", sessionID), slog.String("error", err.Error()))
		chunks = nil
	}

	history, err := l.core.Store().ChatMessageStore().ListLatest(l.ctx, l.TenantID(), sessionID, l.core.Cfg().RAG.HistoryLimit)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatLogic.SendMessage.ChatMessageStore.ListLatest", i18n.ERROR_INTERNAL, err)
	}

	basePrompt := l.core.Cfg().Prompt.Base
	if basePrompt == "" && len(chunks) > 0 {
		basePrompt = ai.TutorPromptForLang(utils.WhatLang(message))
	}

	genTimer := l.core.Metrics().GenContextTimer("chat")
	assembled, err := ai.Assemble(ai.AssembleInput{
		SystemPrompt: basePrompt,
		Chunks:       chunks,
		History:      history,
		UserMessage:  message,
		TokenBudget:  l.core.Cfg().RAG.TokenBudget,
		ChunkRatio:   l.core.Cfg().RAG.ChunkRatio,
		Count:        l.core.Srv().TokenCounter(),
	})
	genTimer.ObserveDuration()
	if err != nil {
		return nil, errors.Trace("ChatLogic.SendMessage.Assemble", err)
	}

	llmTimer := l.core.Metrics().LLMRequestTimer("chat")
	resp, err := l.core.Srv().AI().Generate(l.ctx, assembled.Messages, ai.GenerateOptions{})
	llmTimer.ObserveDuration()
	if err != nil {
		l.core.Metrics().LLMErrorInc(string(errors.KindOf(err)))
		return nil, errors.Trace("ChatLogic.SendMessage.Generate", err)
	}

	latest, err := l.core.Store().ChatMessageStore().GetLatestSequence(l.ctx, l.TenantID(), sessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ChatLogic.SendMessage.GetLatestSequence", i18n.ERROR_INTERNAL, err)
	}

	count := l.core.Srv().TokenCounter()
	now := time.Now().Unix()
	userMsg := types.ChatMessage{
		ID:         utils.GenUniqIDStr(),
		TenantID:   l.TenantID(),
		SessionID:  sessionID,
		UserID:     l.UserID(),
		Role:       types.USER_ROLE_USER,
		Message:    message,
		TokenCount: count(message),
		Sequence:   latest + 1,
		SendTime:   now,
	}
	assistantMsg := types.ChatMessage{
		ID:         utils.GenUniqIDStr(),
		TenantID:   l.TenantID(),
		SessionID:  sessionID,
		UserID:     l.UserID(),
		Role:       types.USER_ROLE_ASSISTANT,
		Message:    resp.Message,
		ChunkRefs:  assembled.ChunkRefs,
		TokenCount: count(resp.Message),
		Sequence:   latest + 2,
		SendTime:   now,
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChatMessageStore().Create(ctx, userMsg); err != nil {
			return errors.New("ChatLogic.SendMessage.ChatMessageStore.CreateUser", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChatMessageStore().Create(ctx, assistantMsg); err != nil {
			return errors.New("ChatLogic.SendMessage.ChatMessageStore.CreateAssistant", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChatSessionStore().Touch(ctx, l.TenantID(), sessionID, now); err != nil {
			return errors.New("ChatLogic.SendMessage.ChatSessionStore.Touch", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if session.Title == "" {
		l.nameSessionAsync(sessionID, message)
	}

	return &SendMessageResult{
		MessageID: assistantMsg.ID,
		Message:   resp.Message,
		ChunkRefs: assembled.ChunkRefs,
		Sequence:  assistantMsg.Sequence,
		Usage:     resp.Usage,
	}, nil
}

// nameSessionAsync titles the session from its first question, off the
// request path. Failure only leaves the title empty.
func (l *ChatLogic) nameSessionAsync(sessionID, firstMessage string) {
	tenantID := l.TenantID()
	c := l.core
	go safe.Run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		prompt := c.Cfg().Prompt.SessionName
		if prompt == "" {
			prompt = ai.PROMPT_NAMED_SESSION_EN
		}

		resp, err := c.Srv().AI().Generate(ctx, []ai.MessageContext{
			{Role: types.USER_ROLE_SYSTEM.String(), Content: prompt},
			{Role: types.USER_ROLE_USER.String(), Content: firstMessage},
		}, ai.GenerateOptions{MaxOutputTokens: 32})
		if err != nil {
			slog.Error("failed to name chat session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			return
		}

		title := strings.TrimSpace(strings.Trim(resp.Message, `"`))
		if title == "" {
			return
		}
		if err := c.Store().ChatSessionStore().UpdateSessionTitle(ctx, tenantID, sessionID, title); err != nil {
			slog.Error("failed to store chat session title", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
	})
}
