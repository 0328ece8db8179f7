package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type CreateCourseRequest struct {
	Name string `json:"name" binding:"required"`
	Desc string `json:"desc"`
}

type CreateCourseResponse struct {
	ID string `json:"id"`
}

func (s *HttpSrv) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	id, err := v1.NewCourseLogic(c.Request.Context(), s.Core).CreateCourse(req.Name, req.Desc)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, CreateCourseResponse{ID: id})
}

func (s *HttpSrv) GetCourse(c *gin.Context) {
	courseID, _ := c.Params.Get("courseid")

	course, err := v1.NewCourseLogic(c.Request.Context(), s.Core).GetCourse(courseID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, course)
}

type ListCoursesRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListCoursesResponse struct {
	List []types.Course `json:"list"`
}

func (s *HttpSrv) ListCourses(c *gin.Context) {
	var req ListCoursesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewCourseLogic(c.Request.Context(), s.Core).ListCourses(req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListCoursesResponse{List: list})
}

func (s *HttpSrv) DeleteCourse(c *gin.Context) {
	courseID, _ := c.Params.Get("courseid")

	if err := v1.NewCourseLogic(c.Request.Context(), s.Core).DeleteCourse(courseID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
