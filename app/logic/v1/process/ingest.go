package process

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/studyhall-ai/studyhall/app/core"
	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/safe"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

var ingestProcess *IngestProcess

type IngestRequest struct {
	TenantID   string
	DocumentID string
}

// IngestProcess drains document ingestion off the request path. The
// queue is bounded, a full queue rejects the push and the periodic
// flush picks the document up later.
type IngestProcess struct {
	ctx         context.Context
	core        *core.Core
	concurrency int

	queue chan IngestRequest

	mu         sync.Mutex
	processing map[string]struct{}
}

func StartIngestProcess(core *core.Core, concurrency int) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	ingestProcess = &IngestProcess{
		ctx:         ctx,
		core:        core,
		concurrency: concurrency,
		queue:       make(chan IngestRequest, 1000),
		processing:  make(map[string]struct{}),
	}

	go safe.RunWithComponent(ingestProcess.Start, "process.ingest")
	go safe.RunWithComponent(func() {
		ingestProcess.Flush()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ingestProcess.Flush()
			}
		}
	}, "process.ingest.flush")
	return cancel
}

// Push queues a document for ingestion. Returns false when the queue
// is full, the flush loop will retry the document.
func Push(req IngestRequest) bool {
	if ingestProcess == nil {
		return false
	}
	select {
	case ingestProcess.queue <- req:
		return true
	default:
		return false
	}
}

func (p *IngestProcess) Start() {
	for i := 0; i < p.concurrency; i++ {
		go safe.Run(func() {
			for {
				select {
				case <-p.ctx.Done():
					return
				case req := <-p.queue:
					p.handle(req)
				}
			}
		})
	}
}

func (p *IngestProcess) handle(req IngestRequest) {
	key := req.TenantID + "/" + req.DocumentID
	p.mu.Lock()
	if _, ok := p.processing[key]; ok {
		p.mu.Unlock()
		return
	}
	p.processing[key] = struct{}{}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.processing, key)
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(p.ctx, time.Minute*10)
	defer cancel()
	ctx = types.InjectTenantScope(ctx, types.NewTenantScope(req.TenantID, "system"))

	if err := v1.NewDocumentLogic(ctx, p.core).Ingest(req.DocumentID); err != nil {
		slog.Error("document ingestion failed",
			slog.String("tenant_id", req.TenantID),
			slog.String("document_id", req.DocumentID),
			slog.String("kind", string(errors.KindOf(err))),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("document ingested",
		slog.String("tenant_id", req.TenantID),
		slog.String("document_id", req.DocumentID))
}

// Flush requeues documents still pending or stuck in processing.
func (p *IngestProcess) Flush() {
	ctx, cancel := context.WithTimeout(p.ctx, time.Second*10)
	defer cancel()

	list, err := p.core.Store().DocumentStore().ListProcessingDocuments(ctx, p.core.Cfg().RAG.IngestMaxRetryTimes, 1, 20)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to list processing documents", slog.String("error", err.Error()))
		return
	}

	if len(list) > 0 {
		slog.Info("ingest process flush", slog.Int("length", len(list)))
	}

	for _, v := range list {
		Push(IngestRequest{TenantID: v.TenantID, DocumentID: v.ID})
	}
}
