package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/chunker"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type DocumentLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

func (l *DocumentLogic) CreateDocument(courseID, title, content string) (string, error) {
	if _, err := NewCourseLogic(l.ctx, l.core).GetCourse(courseID); err != nil {
		return "", err
	}

	doc := types.Document{
		ID:       utils.GenUniqIDStr(),
		TenantID: l.TenantID(),
		CourseID: courseID,
		Title:    title,
		Content:  content,
		Status:   types.DOCUMENT_STATUS_PENDING,
	}

	if err := l.core.Store().DocumentStore().Create(l.ctx, doc); err != nil {
		return "", errors.New("DocumentLogic.CreateDocument.DocumentStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return doc.ID, nil
}

func (l *DocumentLogic) GetDocument(documentID string) (*types.Document, error) {
	doc, err := l.core.Store().DocumentStore().GetDocument(l.ctx, l.TenantID(), documentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("DocumentLogic.GetDocument.DocumentStore.GetDocument", i18n.ERROR_INTERNAL, err)
	}
	if doc == nil || err == sql.ErrNoRows {
		return nil, errors.New("DocumentLogic.GetDocument.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return doc, nil
}

func (l *DocumentLogic) ListDocuments(courseID string, page, pageSize uint64) ([]types.Document, error) {
	list, err := l.core.Store().DocumentStore().ListByCourse(l.ctx, l.TenantID(), courseID, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("DocumentLogic.ListDocuments.DocumentStore.ListByCourse", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

// ListChunks returns a document's chunks in order, mainly to verify
// what an ingestion produced.
func (l *DocumentLogic) ListChunks(documentID string) ([]types.Chunk, error) {
	doc, err := l.GetDocument(documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := l.core.Store().ChunkStore().ListByDocument(l.ctx, l.TenantID(), doc.ID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("DocumentLogic.ListChunks.ChunkStore.ListByDocument", i18n.ERROR_INTERNAL, err)
	}
	return chunks, nil
}

// UpdateDocument replaces title or content. A content change resets
// the document to pending so the next ingestion rebuilds its chunks.
func (l *DocumentLogic) UpdateDocument(documentID string, args types.UpdateDocumentArgs) error {
	doc, err := l.GetDocument(documentID)
	if err != nil {
		return err
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DocumentStore().Update(ctx, l.TenantID(), doc.ID, args); err != nil {
			return errors.New("DocumentLogic.UpdateDocument.DocumentStore.Update", i18n.ERROR_INTERNAL, err)
		}
		if args.Content != "" {
			if err := l.core.Store().DocumentStore().UpdateStatus(ctx, l.TenantID(), doc.ID, types.DOCUMENT_STATUS_PENDING); err != nil {
				return errors.New("DocumentLogic.UpdateDocument.DocumentStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
			}
		}
		return nil
	})
}

func (l *DocumentLogic) DeleteDocument(documentID string) error {
	doc, err := l.GetDocument(documentID)
	if err != nil {
		return err
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().EnsurePartition(ctx, l.TenantID()); err != nil {
			return errors.New("DocumentLogic.DeleteDocument.VectorStore.EnsurePartition", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChunkStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
			return errors.New("DocumentLogic.DeleteDocument.ChunkStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().VectorStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
			return errors.New("DocumentLogic.DeleteDocument.VectorStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().DocumentStore().Delete(ctx, l.TenantID(), doc.ID); err != nil {
			return errors.New("DocumentLogic.DeleteDocument.DocumentStore.Delete", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}

// Ingest chunks, embeds and indexes a document. The previous chunk set
// stays queryable until the replacement commits: chunk rows, vector
// rows and the status flip land in one transaction. On an embedding
// failure nothing is touched and the retry counter is bumped.
func (l *DocumentLogic) Ingest(documentID string) error {
	lockKey := core.DocumentWriteKey(l.TenantID(), documentID)
	if !l.core.DocumentLocks().TryLock(lockKey) {
		return errors.New("DocumentLogic.Ingest.busy", i18n.ERROR_DOCUMENT_BUSY, nil).
			Code(http.StatusConflict).Kind(errors.KindIngestion)
	}
	defer l.core.DocumentLocks().Unlock(lockKey)

	doc, err := l.GetDocument(documentID)
	if err != nil {
		return err
	}

	if err = l.core.Store().DocumentStore().UpdateStatus(l.ctx, l.TenantID(), doc.ID, types.DOCUMENT_STATUS_PROCESSING); err != nil {
		return errors.New("DocumentLogic.Ingest.DocumentStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}

	timer := l.core.Metrics().IngestTimer()
	defer timer.ObserveDuration()

	pieces, err := chunker.Split(doc.Content, chunker.Options{
		ChunkSize: l.core.Cfg().RAG.ChunkSize,
		Overlap:   l.core.Cfg().RAG.ChunkOverlap,
	})
	if err != nil {
		// Unchunkable content never becomes valid by retrying.
		_ = l.core.Store().DocumentStore().UpdateStatus(l.ctx, l.TenantID(), doc.ID, types.DOCUMENT_STATUS_FAILED)
		return errors.New("DocumentLogic.Ingest.chunker.Split", i18n.ERROR_INGESTION_REJECTED, err).
			Code(http.StatusBadRequest).Kind(errors.KindIngestion)
	}

	if err = l.core.EmbeddingSemaphore().Acquire(l.ctx); err != nil {
		_ = l.markIngestFailure(doc)
		return errors.New("DocumentLogic.Ingest.EmbeddingSemaphore.Acquire", i18n.ERROR_INTERNAL, err)
	}

	embTimer := l.core.Metrics().EmbeddingTimer("document")
	contents := lo.Map(pieces, func(item chunker.Piece, _ int) string {
		return item.Content
	})
	embRes, err := l.core.Srv().AI().EmbeddingForDocument(l.ctx, doc.Title, contents)
	l.core.EmbeddingSemaphore().Release()
	embTimer.ObserveDuration()
	if err != nil {
		if ferr := l.markIngestFailure(doc); ferr != nil {
			return ferr
		}
		return errors.Trace("DocumentLogic.Ingest.EmbeddingForDocument", err)
	}

	count := l.core.Srv().TokenCounter()
	now := time.Now().Unix()
	dimension := l.core.Srv().AI().Dimension()

	chunks := make([]*types.Chunk, 0, len(pieces))
	vectors := make([]types.Vector, 0, len(pieces))
	for i, piece := range pieces {
		chunk := &types.Chunk{
			ID:          utils.GenUniqIDStr(),
			TenantID:    l.TenantID(),
			CourseID:    doc.CourseID,
			DocumentID:  doc.ID,
			Seq:         piece.Seq,
			StartOffset: piece.StartOffset,
			EndOffset:   piece.EndOffset,
			Content:     piece.Content,
			TokenCount:  count(piece.Content),
			CreatedAt:   now,
		}
		chunks = append(chunks, chunk)
		vectors = append(vectors, types.Vector{
			ID:         chunk.ID,
			TenantID:   l.TenantID(),
			CourseID:   doc.CourseID,
			DocumentID: doc.ID,
			Embedding:  pgvector.NewVector(embRes.Data[i]),
			Dimension:  dimension,
			CreatedAt:  now,
		})
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().EnsurePartition(ctx, l.TenantID()); err != nil {
			return errors.New("DocumentLogic.Ingest.VectorStore.EnsurePartition", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChunkStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
			return errors.New("DocumentLogic.Ingest.ChunkStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().VectorStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
			return errors.New("DocumentLogic.Ingest.VectorStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().ChunkStore().BatchCreate(ctx, chunks); err != nil {
			return errors.New("DocumentLogic.Ingest.ChunkStore.BatchCreate", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().VectorStore().BatchCreate(ctx, l.TenantID(), vectors); err != nil {
			return errors.New("DocumentLogic.Ingest.VectorStore.BatchCreate", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().DocumentStore().UpdateStatus(ctx, l.TenantID(), doc.ID, types.DOCUMENT_STATUS_READY); err != nil {
			return errors.New("DocumentLogic.Ingest.DocumentStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().DocumentStore().SetRetryTimes(ctx, l.TenantID(), doc.ID, 0); err != nil {
			return errors.New("DocumentLogic.Ingest.DocumentStore.SetRetryTimes", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
	return err
}

// markIngestFailure bumps the retry counter, leaving the document
// pending while retries remain and failed once exhausted.
func (l *DocumentLogic) markIngestFailure(doc *types.Document) error {
	retry := doc.RetryTimes + 1
	status := types.DOCUMENT_STATUS_PENDING
	if retry >= l.core.Cfg().RAG.IngestMaxRetryTimes {
		status = types.DOCUMENT_STATUS_FAILED
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DocumentStore().SetRetryTimes(ctx, l.TenantID(), doc.ID, retry); err != nil {
			return errors.New("DocumentLogic.markIngestFailure.DocumentStore.SetRetryTimes", i18n.ERROR_INTERNAL, err)
		}
		if err := l.core.Store().DocumentStore().UpdateStatus(ctx, l.TenantID(), doc.ID, status); err != nil {
			return errors.New("DocumentLogic.markIngestFailure.DocumentStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}
