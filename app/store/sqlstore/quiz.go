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
		provider.stores.QuizStore = NewQuizStore(provider)
	})
}

type QuizStore struct {
	CommonFields
}

func NewQuizStore(provider SqlProviderAchieve) *QuizStore {
	repo := &QuizStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_QUIZ)
	repo.SetAllColumns("id", "tenant_id", "course_id", "title", "difficulty", "questions", "created_at")
	return repo
}

func (s *QuizStore) Create(ctx context.Context, data types.Quiz) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "tenant_id", "course_id", "title", "difficulty", "questions", "created_at").
		Values(data.ID, data.TenantID, data.CourseID, data.Title, data.Difficulty, data.Questions, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *QuizStore) GetQuiz(ctx context.Context, tenantID, id string) (*types.Quiz, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Quiz
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *QuizStore) ListByCourse(ctx context.Context, tenantID, courseID string, page, pageSize uint64) ([]types.Quiz, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"tenant_id": tenantID, "course_id": courseID}).
		OrderBy("created_at DESC")
	if page > 0 && pageSize > 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Quiz
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *QuizStore) Delete(ctx context.Context, tenantID, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"tenant_id": tenantID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
