package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/studyhall-ai/studyhall/pkg/register"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatSessionStore = NewChatSessionStore(provider)
	})
}

type ChatSessionStore struct {
	CommonFields
}

func NewChatSessionStore(provider SqlProviderAchieve) *ChatSessionStore {
	repo := &ChatSessionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_SESSION)
	repo.SetAllColumns("id", "tenant_id", "course_id", "user_id", "title", "status", "created_at", "latest_access_time")
	return repo
}

func (s *ChatSessionStore) Create(ctx context.Context, data types.ChatSession) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.LatestAccessTime == 0 {
		data.LatestAccessTime = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "tenant_id", "course_id", "user_id", "title", "status", "created_at", "latest_access_time").
		Values(data.ID, data.TenantID, data.CourseID, data.UserID, data.Title, data.Status, data.CreatedAt, data.LatestAccessTime)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatSessionStore) GetChatSession(ctx context.Context, tenantID, id string) (*types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ChatSession
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChatSessionStore) UpdateSessionStatus(ctx context.Context, tenantID, id string, status types.ChatSessionStatus) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id}).Set("status", status)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Touch records activity: bumps the access time and flips a freshly
// created session to active.
func (s *ChatSessionStore) Touch(ctx context.Context, tenantID, id string, accessTime int64) error {
	query := sq.Update(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		Set("latest_access_time", accessTime).
		Set("status", sq.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			types.CHAT_SESSION_STATUS_CREATED, types.CHAT_SESSION_STATUS_ACTIVE))

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatSessionStore) UpdateSessionTitle(ctx context.Context, tenantID, id, title string) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id}).Set("title", title)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChatSessionStore) List(ctx context.Context, tenantID, userID string, page, pageSize uint64) ([]types.ChatSession, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "user_id": userID}).
		OrderBy("latest_access_time DESC")
	if page > 0 && pageSize > 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ChatSession
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// ExpireIdleSessions marks every session idle since idleBefore as
// expired, across all tenants. Returns the number of rows affected.
func (s *ChatSessionStore) ExpireIdleSessions(ctx context.Context, idleBefore int64) (int64, error) {
	query := sq.Update(s.GetTable()).
		Where(sq.Lt{"latest_access_time": idleBefore}).
		Where(sq.Eq{"status": []types.ChatSessionStatus{types.CHAT_SESSION_STATUS_CREATED, types.CHAT_SESSION_STATUS_ACTIVE}}).
		Set("status", types.CHAT_SESSION_STATUS_EXPIRED)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	result, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (s *ChatSessionStore) Delete(ctx context.Context, tenantID, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
