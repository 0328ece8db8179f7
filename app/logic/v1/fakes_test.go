package v1_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/app/core/srv"
	"github.com/studyhall-ai/studyhall/app/store"
	"github.com/studyhall-ai/studyhall/pkg/ai"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

// memoryProvider backs the logic flow tests with map based stores so
// they run without postgres. Single mutex, no pagination beyond what
// the flows under test actually need.
type memoryProvider struct {
	mu sync.Mutex

	courses   map[string]types.Course
	documents map[string]types.Document
	chunks    []types.Chunk
	vectors   []types.Vector
	queryHits []types.QueryResult
	sessions  map[string]*types.ChatSession
	messages  []types.ChatMessage
	quizzes   map[string]types.Quiz
	attempts  map[string]types.QuizAttempt
}

var _ store.Provider = (*memoryProvider)(nil)

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{
		courses:   map[string]types.Course{},
		documents: map[string]types.Document{},
		sessions:  map[string]*types.ChatSession{},
		quizzes:   map[string]types.Quiz{},
		attempts:  map[string]types.QuizAttempt{},
	}
}

func (p *memoryProvider) CourseStore() store.CourseStore           { return &memCourseStore{p} }
func (p *memoryProvider) DocumentStore() store.DocumentStore       { return &memDocumentStore{p} }
func (p *memoryProvider) ChunkStore() store.ChunkStore             { return &memChunkStore{p} }
func (p *memoryProvider) VectorStore() store.VectorStore           { return &memVectorStore{p} }
func (p *memoryProvider) ChatSessionStore() store.ChatSessionStore { return &memChatSessionStore{p} }
func (p *memoryProvider) ChatMessageStore() store.ChatMessageStore { return &memChatMessageStore{p} }
func (p *memoryProvider) QuizStore() store.QuizStore               { return &memQuizStore{p} }
func (p *memoryProvider) QuizAttemptStore() store.QuizAttemptStore { return &memQuizAttemptStore{p} }

func (p *memoryProvider) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (p *memoryProvider) sessionMessages(sessionID string) []types.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []types.ChatMessage
	for _, m := range p.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out
}

type memCourseStore struct{ p *memoryProvider }

func (s *memCourseStore) Create(ctx context.Context, data types.Course) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.courses[data.ID] = data
	return nil
}

func (s *memCourseStore) GetCourse(ctx context.Context, tenantID, id string) (*types.Course, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	c, ok := s.p.courses[id]
	if !ok || c.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *memCourseStore) ListCourses(ctx context.Context, tenantID string, page, pageSize uint64) ([]types.Course, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Course
	for _, c := range s.p.courses {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCourseStore) Delete(ctx context.Context, tenantID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	delete(s.p.courses, id)
	return nil
}

type memDocumentStore struct{ p *memoryProvider }

func (s *memDocumentStore) Create(ctx context.Context, data types.Document) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.documents[data.ID] = data
	return nil
}

func (s *memDocumentStore) GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	d, ok := s.p.documents[id]
	if !ok || d.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *memDocumentStore) Update(ctx context.Context, tenantID, id string, args types.UpdateDocumentArgs) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	d := s.p.documents[id]
	d.Title = args.Title
	d.Content = args.Content
	s.p.documents[id] = d
	return nil
}

func (s *memDocumentStore) UpdateStatus(ctx context.Context, tenantID, id string, status types.DocumentStatus) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	d := s.p.documents[id]
	d.Status = status
	s.p.documents[id] = d
	return nil
}

func (s *memDocumentStore) SetRetryTimes(ctx context.Context, tenantID, id string, retryTimes int) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	d := s.p.documents[id]
	d.RetryTimes = retryTimes
	s.p.documents[id] = d
	return nil
}

func (s *memDocumentStore) Delete(ctx context.Context, tenantID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	delete(s.p.documents, id)
	return nil
}

func (s *memDocumentStore) ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Document, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Document
	for _, d := range s.p.documents {
		if d.TenantID == tenantID && d.CourseID == courseID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memDocumentStore) ListProcessingDocuments(ctx context.Context, maxRetryTimes int, page, pageSize uint64) ([]types.Document, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Document
	for _, d := range s.p.documents {
		if d.Status == types.DOCUMENT_STATUS_PROCESSING && d.RetryTimes < maxRetryTimes {
			out = append(out, d)
		}
	}
	return out, nil
}

type memChunkStore struct{ p *memoryProvider }

func (s *memChunkStore) BatchCreate(ctx context.Context, data []*types.Chunk) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	for _, c := range data {
		s.p.chunks = append(s.p.chunks, *c)
	}
	return nil
}

func (s *memChunkStore) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]types.Chunk, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []types.Chunk
	for _, c := range s.p.chunks {
		if c.TenantID == tenantID && want[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memChunkStore) ListByDocument(ctx context.Context, tenantID, documentID string) ([]types.Chunk, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Chunk
	for _, c := range s.p.chunks {
		if c.TenantID == tenantID && c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memChunkStore) ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Chunk, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Chunk
	for _, c := range s.p.chunks {
		if c.TenantID == tenantID && c.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memChunkStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var kept []types.Chunk
	for _, c := range s.p.chunks {
		if !(c.TenantID == tenantID && c.DocumentID == documentID) {
			kept = append(kept, c)
		}
	}
	s.p.chunks = kept
	return nil
}

type memVectorStore struct{ p *memoryProvider }

func (s *memVectorStore) EnsurePartition(ctx context.Context, tenantID string) error { return nil }

func (s *memVectorStore) BatchCreate(ctx context.Context, tenantID string, datas []types.Vector) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.vectors = append(s.p.vectors, datas...)
	return nil
}

func (s *memVectorStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var kept []types.Vector
	for _, v := range s.p.vectors {
		if !(v.TenantID == tenantID && v.DocumentID == documentID) {
			kept = append(kept, v)
		}
	}
	s.p.vectors = kept
	return nil
}

// Query returns the scripted hits, the tests are not about cosine math.
func (s *memVectorStore) Query(ctx context.Context, tenantID string, opts types.GetVectorsOptions, vector pgvector.Vector, limit uint64, minScore float64) ([]types.QueryResult, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.p.queryHits, nil
}

type memChatSessionStore struct{ p *memoryProvider }

func (s *memChatSessionStore) Create(ctx context.Context, data types.ChatSession) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if data.LatestAccessTime == 0 {
		data.LatestAccessTime = time.Now().Unix()
	}
	s.p.sessions[data.ID] = &data
	return nil
}

func (s *memChatSessionStore) GetChatSession(ctx context.Context, tenantID, id string) (*types.ChatSession, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	sess, ok := s.p.sessions[id]
	if !ok || sess.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	copied := *sess
	return &copied, nil
}

func (s *memChatSessionStore) UpdateSessionStatus(ctx context.Context, tenantID, id string, status types.ChatSessionStatus) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if sess, ok := s.p.sessions[id]; ok {
		sess.Status = status
	}
	return nil
}

func (s *memChatSessionStore) Touch(ctx context.Context, tenantID, id string, accessTime int64) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if sess, ok := s.p.sessions[id]; ok {
		sess.LatestAccessTime = accessTime
		if sess.Status == types.CHAT_SESSION_STATUS_CREATED {
			sess.Status = types.CHAT_SESSION_STATUS_ACTIVE
		}
	}
	return nil
}

func (s *memChatSessionStore) UpdateSessionTitle(ctx context.Context, tenantID, id, title string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if sess, ok := s.p.sessions[id]; ok {
		sess.Title = title
	}
	return nil
}

func (s *memChatSessionStore) List(ctx context.Context, tenantID, userID string, page, pageSize uint64) ([]types.ChatSession, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.ChatSession
	for _, sess := range s.p.sessions {
		if sess.TenantID == tenantID && sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s *memChatSessionStore) ExpireIdleSessions(ctx context.Context, idleBefore int64) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var n int64
	for _, sess := range s.p.sessions {
		if sess.Status != types.CHAT_SESSION_STATUS_EXPIRED && sess.LatestAccessTime < idleBefore {
			sess.Status = types.CHAT_SESSION_STATUS_EXPIRED
			n++
		}
	}
	return n, nil
}

func (s *memChatSessionStore) Delete(ctx context.Context, tenantID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	delete(s.p.sessions, id)
	return nil
}

type memChatMessageStore struct{ p *memoryProvider }

func (s *memChatMessageStore) Create(ctx context.Context, data types.ChatMessage) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	for _, m := range s.p.messages {
		if m.SessionID == data.SessionID && m.Sequence == data.Sequence {
			return fmt.Errorf("duplicate sequence %d for session %s", data.Sequence, data.SessionID)
		}
	}
	s.p.messages = append(s.p.messages, data)
	return nil
}

func (s *memChatMessageStore) GetLatestSequence(ctx context.Context, tenantID, sessionID string) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var latest int64
	for _, m := range s.p.messages {
		if m.TenantID == tenantID && m.SessionID == sessionID && m.Sequence > latest {
			latest = m.Sequence
		}
	}
	return latest, nil
}

func (s *memChatMessageStore) ListLatest(ctx context.Context, tenantID, sessionID string, limit uint64) ([]types.ChatMessage, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.ChatMessage
	for _, m := range s.p.messages {
		if m.TenantID == tenantID && m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if uint64(len(out)) > limit {
		out = out[uint64(len(out))-limit:]
	}
	return out, nil
}

func (s *memChatMessageStore) ListSessionMessages(ctx context.Context, tenantID, sessionID string, page, pageSize uint64) ([]types.ChatMessage, error) {
	return s.ListLatest(ctx, tenantID, sessionID, pageSize)
}

func (s *memChatMessageStore) DeleteSessionMessages(ctx context.Context, tenantID, sessionID string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var kept []types.ChatMessage
	for _, m := range s.p.messages {
		if m.SessionID != sessionID {
			kept = append(kept, m)
		}
	}
	s.p.messages = kept
	return nil
}

type memQuizStore struct{ p *memoryProvider }

func (s *memQuizStore) Create(ctx context.Context, data types.Quiz) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.quizzes[data.ID] = data
	return nil
}

func (s *memQuizStore) GetQuiz(ctx context.Context, tenantID, id string) (*types.Quiz, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	q, ok := s.p.quizzes[id]
	if !ok || q.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return &q, nil
}

func (s *memQuizStore) ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Quiz, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.Quiz
	for _, q := range s.p.quizzes {
		if q.TenantID == tenantID && q.CourseID == courseID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memQuizStore) Delete(ctx context.Context, tenantID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	delete(s.p.quizzes, id)
	return nil
}

type memQuizAttemptStore struct{ p *memoryProvider }

func (s *memQuizAttemptStore) Create(ctx context.Context, data types.QuizAttempt) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.attempts[data.ID] = data
	return nil
}

func (s *memQuizAttemptStore) GetAttempt(ctx context.Context, tenantID, id string) (*types.QuizAttempt, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	a, ok := s.p.attempts[id]
	if !ok || a.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (s *memQuizAttemptStore) ListByQuiz(ctx context.Context, tenantID, quizID string, page, pageSize uint64) ([]types.QuizAttempt, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []types.QuizAttempt
	for _, a := range s.p.attempts {
		if a.TenantID == tenantID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}

// scriptedAI replays canned completions in order. When the script runs
// out it falls back to Fallback, or fails the call when that is empty.
type scriptedAI struct {
	mu       sync.Mutex
	Replies  []string
	Fallback string
	calls    int
}

var _ srv.AIDriver = (*scriptedAI)(nil)

func (d *scriptedAI) Generate(ctx context.Context, messages []ai.MessageContext, opts ai.GenerateOptions) (*ai.GenerateResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls >= len(d.Replies) {
		if d.Fallback == "" {
			return nil, fmt.Errorf("no scripted reply for call %d", d.calls+1)
		}
		d.calls++
		return &ai.GenerateResponse{Message: d.Fallback}, nil
	}
	msg := d.Replies[d.calls]
	d.calls++
	return &ai.GenerateResponse{Message: msg, Usage: ai.Usage{TotalTokens: 10}}, nil
}

func (d *scriptedAI) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *scriptedAI) Model() string { return "scripted" }
func (d *scriptedAI) Lang() string  { return ai.MODEL_BASE_LANGUAGE_EN }

func (d *scriptedAI) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return ai.EmbeddingResult{Data: [][]float32{{0.1, 0.2, 0.3, 0.4}}}, nil
}

func (d *scriptedAI) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	data := make([][]float32, len(content))
	for i := range data {
		data[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return ai.EmbeddingResult{Data: data}, nil
}

func (d *scriptedAI) Dimension() int { return 4 }

func newTestCore(provider store.Provider, driver srv.AIDriver) *core.Core {
	return core.SetupTestCore(core.CoreConfig{}, provider, srv.ApplyAIDriver(driver, ai.EstimateTokens))
}

func testCtx(tenantID, userID string) context.Context {
	return types.InjectTenantScope(context.Background(), types.NewTenantScope(tenantID, userID))
}

func seedCourse(p *memoryProvider, tenantID, id string) {
	p.courses[id] = types.Course{ID: id, TenantID: tenantID, Name: "calculus"}
}

func seedChunks(p *memoryProvider, tenantID, courseID string, n int) {
	for i := 0; i < n; i++ {
		p.chunks = append(p.chunks, types.Chunk{
			ID:         fmt.Sprintf("chunk-%d", i+1),
			TenantID:   tenantID,
			CourseID:   courseID,
			DocumentID: "doc-1",
			Seq:        i + 1,
			Content:    fmt.Sprintf("the derivative measures the rate of change, part %d", i+1),
		})
	}
}
