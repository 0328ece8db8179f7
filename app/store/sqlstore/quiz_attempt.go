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
		provider.stores.QuizAttemptStore = NewQuizAttemptStore(provider)
	})
}

type QuizAttemptStore struct {
	CommonFields
}

func NewQuizAttemptStore(provider SqlProviderAchieve) *QuizAttemptStore {
	repo := &QuizAttemptStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_QUIZ_ATTEMPT)
	repo.SetAllColumns("id", "tenant_id", "quiz_id", "user_id", "answers", "correct", "total", "score", "created_at")
	return repo
}

func (s *QuizAttemptStore) Create(ctx context.Context, data types.QuizAttempt) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "tenant_id", "quiz_id", "user_id", "answers", "correct", "total", "score", "created_at").
		Values(data.ID, data.TenantID, data.QuizID, data.UserID, data.Answers, data.Correct, data.Total, data.Score, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *QuizAttemptStore) GetAttempt(ctx context.Context, tenantID, id string) (*types.QuizAttempt, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.QuizAttempt
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *QuizAttemptStore) ListByQuiz(ctx context.Context, tenantID, quizID string, page, pageSize uint64) ([]types.QuizAttempt, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "quiz_id": quizID}).
		OrderBy("created_at DESC")
	if page > 0 && pageSize > 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.QuizAttempt
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
