package v1_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall-ai/studyhall/app/core"
	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func seedSession(p *memoryProvider, id, tenantID, userID, courseID string) {
	p.sessions[id] = &types.ChatSession{
		ID:               id,
		TenantID:         tenantID,
		CourseID:         courseID,
		UserID:           userID,
		Title:            "algebra help",
		Status:           types.CHAT_SESSION_STATUS_CREATED,
		LatestAccessTime: time.Now().Unix(),
	}
}

func TestSendMessagePersistsOrderedTurn(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedSession(p, "s1", "t1", "u1", "course-1")
	driver := &scriptedAI{Replies: []string{"a derivative measures change", "an integral accumulates it"}}
	app := newTestCore(p, driver)

	logic := v1.NewChatLogic(testCtx("t1", "u1"), app)

	res, err := logic.SendMessage("s1", "what is a derivative?")
	require.NoError(t, err)
	assert.Equal(t, "a derivative measures change", res.Message)
	assert.Equal(t, int64(2), res.Sequence)

	res, err = logic.SendMessage("s1", "and an integral?")
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Sequence)

	msgs := p.sessionMessages("s1")
	require.Len(t, msgs, 4)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Sequence)
	}
	assert.Equal(t, types.USER_ROLE_USER, msgs[0].Role)
	assert.Equal(t, types.USER_ROLE_ASSISTANT, msgs[1].Role)
	assert.Equal(t, types.USER_ROLE_USER, msgs[2].Role)
	assert.Equal(t, types.USER_ROLE_ASSISTANT, msgs[3].Role)

	assert.Equal(t, types.CHAT_SESSION_STATUS_ACTIVE, p.sessions["s1"].Status)
}

func TestSendMessageRefusedWhileTurnInFlight(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedSession(p, "s1", "t1", "u1", "course-1")
	app := newTestCore(p, &scriptedAI{Fallback: "never reached"})

	key := core.SessionTurnKey("t1", "s1")
	require.True(t, app.SessionLocks().TryLock(key))
	defer app.SessionLocks().Unlock(key)

	_, err := v1.NewChatLogic(testCtx("t1", "u1"), app).SendMessage("s1", "hello?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTurnInFlight))
	assert.Empty(t, p.sessionMessages("s1"))
}

func TestSendMessageOrderingUnderConcurrentSubmission(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedSession(p, "s1", "t1", "u1", "course-1")
	app := newTestCore(p, &scriptedAI{Fallback: "noted"})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = v1.NewChatLogic(testCtx("t1", "u1"), app).SendMessage("s1", "same question")
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.True(t, errors.Is(err, errors.KindTurnInFlight))
	}
	assert.GreaterOrEqual(t, accepted, 1)

	// accepted turns land as contiguous, gapless pairs
	msgs := p.sessionMessages("s1")
	require.Len(t, msgs, accepted*2)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Sequence)
		if i%2 == 0 {
			assert.Equal(t, types.USER_ROLE_USER, m.Role)
		} else {
			assert.Equal(t, types.USER_ROLE_ASSISTANT, m.Role)
		}
	}
}

func TestIdleSessionExpiresOnAccess(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedSession(p, "s1", "t1", "u1", "course-1")
	p.sessions["s1"].Status = types.CHAT_SESSION_STATUS_ACTIVE
	p.sessions["s1"].LatestAccessTime = time.Now().Unix() - 7200

	driver := &scriptedAI{Replies: []string{"fresh answer"}}
	app := newTestCore(p, driver)
	ctx := testCtx("t1", "u1")

	_, err := v1.NewChatLogic(ctx, app).SendMessage("s1", "still there?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindSessionExpired))
	assert.Equal(t, types.CHAT_SESSION_STATUS_EXPIRED, p.sessions["s1"].Status)

	// expiry is terminal, a second access gets the same refusal
	_, err = v1.NewChatSessionLogic(ctx, app).CheckLiveChatSession("s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindSessionExpired))

	// a fresh session starts from an empty history
	seedSession(p, "s2", "t1", "u1", "course-1")
	res, err := v1.NewChatLogic(ctx, app).SendMessage("s2", "hello again")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Sequence)
	assert.Len(t, p.sessionMessages("s2"), 2)
	assert.Empty(t, p.sessionMessages("s1"))
}

func TestSessionOfAnotherUserIsNotFound(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedSession(p, "s1", "t1", "u1", "course-1")
	app := newTestCore(p, &scriptedAI{})

	_, err := v1.NewChatSessionLogic(testCtx("t1", "u2"), app).CheckChatSession("s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTenantIsolation))
}
