package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

// Provider bundles every store behind one handle so logic code can run
// against postgres in production and in-memory fakes in tests.
type Provider interface {
	CourseStore() CourseStore
	DocumentStore() DocumentStore
	ChunkStore() ChunkStore
	VectorStore() VectorStore
	ChatSessionStore() ChatSessionStore
	ChatMessageStore() ChatMessageStore
	QuizStore() QuizStore
	QuizAttemptStore() QuizAttemptStore

	// Transaction runs fn atomically. Store calls made with the ctx
	// passed to fn join the same transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CourseStore interface {
	Create(ctx context.Context, data types.Course) error
	GetCourse(ctx context.Context, tenantID, id string) (*types.Course, error)
	ListCourses(ctx context.Context, tenantID string, page, pageSize uint64) ([]types.Course, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type DocumentStore interface {
	Create(ctx context.Context, data types.Document) error
	GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error)
	Update(ctx context.Context, tenantID, id string, args types.UpdateDocumentArgs) error
	UpdateStatus(ctx context.Context, tenantID, id string, status types.DocumentStatus) error
	SetRetryTimes(ctx context.Context, tenantID, id string, retryTimes int) error
	Delete(ctx context.Context, tenantID, id string) error
	ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Document, error)
	ListProcessingDocuments(ctx context.Context, maxRetryTimes int, page, pageSize uint64) ([]types.Document, error)
}

type ChunkStore interface {
	BatchCreate(ctx context.Context, data []*types.Chunk) error
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]types.Chunk, error)
	ListByDocument(ctx context.Context, tenantID, documentID string) ([]types.Chunk, error)
	ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Chunk, error)
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error
}

// VectorStore is the tenant partitioned nearest-neighbor index.
// Every method takes the tenant id because it selects which partition
// table the statement runs against.
type VectorStore interface {
	EnsurePartition(ctx context.Context, tenantID string) error
	BatchCreate(ctx context.Context, tenantID string, datas []types.Vector) error
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error
	Query(ctx context.Context, tenantID string, opts types.GetVectorsOptions, vector pgvector.Vector, limit uint64, minScore float64) ([]types.QueryResult, error)
}

type ChatSessionStore interface {
	Create(ctx context.Context, data types.ChatSession) error
	GetChatSession(ctx context.Context, tenantID, id string) (*types.ChatSession, error)
	UpdateSessionStatus(ctx context.Context, tenantID, id string, status types.ChatSessionStatus) error
	Touch(ctx context.Context, tenantID, id string, accessTime int64) error
	UpdateSessionTitle(ctx context.Context, tenantID, id, title string) error
	List(ctx context.Context, tenantID, userID string, page, pageSize uint64) ([]types.ChatSession, error)
	ExpireIdleSessions(ctx context.Context, idleBefore int64) (int64, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type ChatMessageStore interface {
	Create(ctx context.Context, data types.ChatMessage) error
	GetLatestSequence(ctx context.Context, tenantID, sessionID string) (int64, error)
	// ListLatest returns up to limit newest messages, oldest first.
	ListLatest(ctx context.Context, tenantID, sessionID string, limit uint64) ([]types.ChatMessage, error)
	ListSessionMessages(ctx context.Context, tenantID, sessionID string, page, pageSize uint64) ([]types.ChatMessage, error)
	DeleteSessionMessages(ctx context.Context, tenantID, sessionID string) error
}

type QuizStore interface {
	Create(ctx context.Context, data types.Quiz) error
	GetQuiz(ctx context.Context, tenantID, id string) (*types.Quiz, error)
	ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Quiz, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type QuizAttemptStore interface {
	Create(ctx context.Context, data types.QuizAttempt) error
	GetAttempt(ctx context.Context, tenantID, id string) (*types.QuizAttempt, error)
	ListByQuiz(ctx context.Context, tenantID, quizID string, page, pageSize uint64) ([]types.QuizAttempt, error)
}
