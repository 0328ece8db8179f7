package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/studyhall-ai/studyhall/pkg/register"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.VectorStore = NewVectorStore(provider)
	})
}

// VectorStore keeps one table per tenant. Every statement resolves its
// table from the tenant id, so a query can only ever see rows of the
// tenant it was issued for.
type VectorStore struct {
	CommonFields
}

func NewVectorStore(provider SqlProviderAchieve) *VectorStore {
	repo := &VectorStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_VECTORS)
	repo.SetAllColumns("id", "tenant_id", "course_id", "document_id", "embedding", "dimension", "created_at")
	repo.GetTableFunc(func(keys []interface{}) string {
		return types.VectorPartitionTable(keys[0].(string))
	})
	return repo
}

// EnsurePartition creates the tenant's partition table on first use.
// The embedding column is declared without a fixed dimension so tenants
// provisioned under different embedding models share the same DDL.
func (s *VectorStore) EnsurePartition(ctx context.Context, tenantID string) error {
	table := s.GetTable(tenantID)
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR(32) PRIMARY KEY,
    tenant_id VARCHAR(32) NOT NULL,
    course_id VARCHAR(32) NOT NULL,
    document_id VARCHAR(32) NOT NULL,
    embedding vector NOT NULL,
    dimension INT NOT NULL,
    created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%s_document ON %s (document_id);
CREATE INDEX IF NOT EXISTS idx_%s_course ON %s (course_id);`, table, table, table, table, table)

	_, err := s.GetMaster(ctx).Exec(ddl)
	return err
}

func (s *VectorStore) BatchCreate(ctx context.Context, tenantID string, datas []types.Vector) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable(tenantID)).
		Columns("id", "tenant_id", "course_id", "document_id", "embedding", "dimension", "created_at")

	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = time.Now().Unix()
		}
		query = query.Values(data.ID, data.TenantID, data.CourseID, data.DocumentID, data.Embedding, data.Dimension, data.CreatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *VectorStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	query := sq.Delete(s.GetTable(tenantID)).Where(sq.Eq{"document_id": documentID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Query returns the nearest chunks by cosine similarity, best first.
// Matches scoring under minScore are dropped.
func (s *VectorStore) Query(ctx context.Context, tenantID string, opts types.GetVectorsOptions, vector pgvector.Vector, limit uint64, minScore float64) ([]types.QueryResult, error) {
	// pgvector supported distance functions are:
	// <-> - L2 distance
	// <#> - (negative) inner product
	// <=> - cosine distance
	// <+> - L1 distance (added in 0.7.0)
	cosColumn, vectorArgs, _ := sq.Expr("1 - (embedding <=> ?) as cos", vector).ToSql()
	query := sq.Select("id", "document_id", cosColumn).From(s.GetTable(tenantID)).Limit(limit).OrderBy("cos DESC")
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	args = append(vectorArgs, args...)

	var res []types.QueryResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}

	if minScore > 0 {
		filtered := res[:0]
		for _, v := range res {
			if v.Cos >= minScore {
				filtered = append(filtered, v)
			}
		}
		res = filtered
	}
	return res, nil
}
