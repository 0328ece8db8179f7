package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type CourseLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewCourseLogic(ctx context.Context, core *core.Core) *CourseLogic {
	return &CourseLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

func (l *CourseLogic) CreateCourse(name, desc string) (string, error) {
	course := types.Course{
		ID:       utils.GenUniqIDStr(),
		TenantID: l.TenantID(),
		Name:     name,
		Desc:     desc,
	}

	if err := l.core.Store().CourseStore().Create(l.ctx, course); err != nil {
		return "", errors.New("CourseLogic.CreateCourse.CourseStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return course.ID, nil
}

func (l *CourseLogic) GetCourse(courseID string) (*types.Course, error) {
	course, err := l.core.Store().CourseStore().GetCourse(l.ctx, l.TenantID(), courseID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CourseLogic.GetCourse.CourseStore.GetCourse", i18n.ERROR_INTERNAL, err)
	}
	if course == nil || err == sql.ErrNoRows {
		return nil, errors.New("CourseLogic.GetCourse.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return course, nil
}

func (l *CourseLogic) ListCourses(page, pageSize uint64) ([]types.Course, error) {
	list, err := l.core.Store().CourseStore().ListCourses(l.ctx, l.TenantID(), page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CourseLogic.ListCourses.CourseStore.ListCourses", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

// DeleteCourse removes the course with all its documents, chunks and
// vectors in one transaction.
func (l *CourseLogic) DeleteCourse(courseID string) error {
	docs, err := l.core.Store().DocumentStore().ListByCourse(l.ctx, l.TenantID(), courseID, 0, 0)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("CourseLogic.DeleteCourse.DocumentStore.ListByCourse", i18n.ERROR_INTERNAL, err)
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().EnsurePartition(ctx, l.TenantID()); err != nil {
			return errors.New("CourseLogic.DeleteCourse.VectorStore.EnsurePartition", i18n.ERROR_INTERNAL, err)
		}
		for _, doc := range docs {
			if err := l.core.Store().ChunkStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
				return errors.New("CourseLogic.DeleteCourse.ChunkStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
			}
			if err := l.core.Store().VectorStore().DeleteByDocument(ctx, l.TenantID(), doc.ID); err != nil {
				return errors.New("CourseLogic.DeleteCourse.VectorStore.DeleteByDocument", i18n.ERROR_INTERNAL, err)
			}
			if err := l.core.Store().DocumentStore().Delete(ctx, l.TenantID(), doc.ID); err != nil {
				return errors.New("CourseLogic.DeleteCourse.DocumentStore.Delete", i18n.ERROR_INTERNAL, err)
			}
		}
		if err := l.core.Store().CourseStore().Delete(ctx, l.TenantID(), courseID); err != nil {
			return errors.New("CourseLogic.DeleteCourse.CourseStore.Delete", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}
