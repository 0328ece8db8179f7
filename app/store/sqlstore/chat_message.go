package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/studyhall-ai/studyhall/pkg/register"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatMessageStore = NewChatMessageStore(provider)
	})
}

type ChatMessageStore struct {
	CommonFields
}

func NewChatMessageStore(provider SqlProviderAchieve) *ChatMessageStore {
	repo := &ChatMessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_MESSAGE)
	repo.SetAllColumns("id", "tenant_id", "session_id", "user_id", "role", "message", "chunk_refs", "token_count", "sequence", "send_time")
	return repo
}

func (s *ChatMessageStore) Create(ctx context.Context, data types.ChatMessage) error {
	if data.SendTime == 0 {
		data.SendTime = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "tenant_id", "session_id", "user_id", "role", "message", "chunk_refs", "token_count", "sequence", "send_time").
		Values(data.ID, data.TenantID, data.SessionID, data.UserID, data.Role, data.Message, data.ChunkRefs, data.TokenCount, data.Sequence, data.SendTime)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatMessageStore) GetLatestSequence(ctx context.Context, tenantID, sessionID string) (int64, error) {
	query := sq.Select("COALESCE(MAX(sequence), 0)").From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "session_id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var seq int64
	if err = s.GetReplica(ctx).Get(&seq, queryString, args...); err != nil {
		return 0, err
	}
	return seq, nil
}

// ListLatest returns up to limit newest messages, reordered oldest
// first so callers can replay them as conversation history.
func (s *ChatMessageStore) ListLatest(ctx context.Context, tenantID, sessionID string, limit uint64) ([]types.ChatMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "session_id": sessionID}).
		OrderBy("sequence DESC").
		Limit(limit)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ChatMessage
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return lo.Reverse(res), nil
}

func (s *ChatMessageStore) ListSessionMessages(ctx context.Context, tenantID, sessionID string, page, pageSize uint64) ([]types.ChatMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "session_id": sessionID}).
		OrderBy("sequence ASC")
	if page > 0 && pageSize > 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ChatMessage
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChatMessageStore) DeleteSessionMessages(ctx context.Context, tenantID, sessionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "session_id": sessionID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
