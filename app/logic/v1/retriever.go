package v1

import (
	"context"
	"database/sql"
	"sort"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

type RetrieveLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewRetrieveLogic(ctx context.Context, core *core.Core) *RetrieveLogic {
	return &RetrieveLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

// Retrieve embeds the query and returns the top chunks of the course
// by cosine similarity, deduplicated and capped at topK. An empty
// result is not an error: the tutor answers without material then.
func (l *RetrieveLogic) Retrieve(courseID, query string, topK uint64) ([]types.RankedChunk, error) {
	if topK == 0 {
		topK = l.core.Cfg().RAG.TopK
	}

	timer := l.core.Metrics().RetrieveTimer()
	defer timer.ObserveDuration()

	embTimer := l.core.Metrics().EmbeddingTimer("query")
	embRes, err := l.core.Srv().AI().EmbeddingForQuery(l.ctx, []string{query})
	embTimer.ObserveDuration()
	if err != nil {
		return nil, errors.Trace("RetrieveLogic.Retrieve.EmbeddingForQuery", err)
	}
	if len(embRes.Data) == 0 {
		return nil, errors.New("RetrieveLogic.Retrieve.emptyembedding", i18n.ERROR_INTERNAL, nil)
	}

	// Overfetch so overlap dedup still leaves topK candidates.
	results, err := l.core.Store().VectorStore().Query(l.ctx, l.TenantID(),
		types.GetVectorsOptions{CourseID: courseID},
		pgvector.NewVector(embRes.Data[0]), topK*2, l.core.Cfg().RAG.MinScore)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("RetrieveLogic.Retrieve.VectorStore.Query", i18n.ERROR_INTERNAL, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		scores[r.ID] = r.Cos
		ids = append(ids, r.ID)
	}

	chunks, err := l.core.Store().ChunkStore().GetByIDs(l.ctx, l.TenantID(), ids)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("RetrieveLogic.Retrieve.ChunkStore.GetByIDs", i18n.ERROR_INTERNAL, err)
	}

	ranked := lo.Map(chunks, func(item types.Chunk, _ int) types.RankedChunk {
		return types.RankedChunk{Chunk: item, Score: scores[item.ID]}
	})

	ranked = DedupeOverlapping(ranked)
	if uint64(len(ranked)) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// DedupeOverlapping drops chunks whose character range overlaps an
// already accepted chunk of the same document, keeping the higher
// scored one. Result stays sorted by score, best first.
func DedupeOverlapping(chunks []types.RankedChunk) []types.RankedChunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	var kept []types.RankedChunk
	for _, c := range chunks {
		overlapped := false
		for _, k := range kept {
			if k.DocumentID != c.DocumentID {
				continue
			}
			if c.StartOffset < k.EndOffset && k.StartOffset < c.EndOffset {
				overlapped = true
				break
			}
		}
		if !overlapped {
			kept = append(kept, c)
		}
	}
	return kept
}
