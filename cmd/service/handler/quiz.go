package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type GenerateQuizRequest struct {
	CourseID   string `json:"course_id" binding:"required"`
	Count      int    `json:"count" binding:"required"`
	Difficulty string `json:"difficulty"`
}

func (s *HttpSrv) GenerateQuiz(c *gin.Context) {
	var req GenerateQuizRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	quiz, err := v1.NewQuizLogic(c.Request.Context(), s.Core).GenerateQuiz(req.CourseID, req.Count, types.QuizDifficulty(req.Difficulty))
	if err != nil {
		// Partial generation still stores the quiz, the error carries
		// what the caller got.
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, quiz)
}

func (s *HttpSrv) GetQuiz(c *gin.Context) {
	quizID, _ := c.Params.Get("quizid")

	quiz, err := v1.NewQuizLogic(c.Request.Context(), s.Core).GetQuiz(quizID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, quiz)
}

type ListQuizzesRequest struct {
	CourseID string `json:"course_id" form:"course_id" binding:"required"`
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListQuizzesResponse struct {
	List []types.Quiz `json:"list"`
}

func (s *HttpSrv) ListQuizzes(c *gin.Context) {
	var req ListQuizzesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewQuizLogic(c.Request.Context(), s.Core).ListQuizzes(req.CourseID, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListQuizzesResponse{List: list})
}

func (s *HttpSrv) DeleteQuiz(c *gin.Context) {
	quizID, _ := c.Params.Get("quizid")

	if err := v1.NewQuizLogic(c.Request.Context(), s.Core).DeleteQuiz(quizID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) GetQuizAttempt(c *gin.Context) {
	attemptID, _ := c.Params.Get("attemptid")

	attempt, err := v1.NewQuizLogic(c.Request.Context(), s.Core).GetAttempt(attemptID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, attempt)
}

type ListQuizAttemptsRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListQuizAttemptsResponse struct {
	List []types.QuizAttempt `json:"list"`
}

func (s *HttpSrv) ListQuizAttempts(c *gin.Context) {
	var req ListQuizAttemptsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	quizID, _ := c.Params.Get("quizid")

	list, err := v1.NewQuizLogic(c.Request.Context(), s.Core).ListAttempts(quizID, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListQuizAttemptsResponse{List: list})
}

type GradeQuizRequest struct {
	Answers types.QuizAnswers `json:"answers" binding:"required"`
}

func (s *HttpSrv) GradeQuiz(c *gin.Context) {
	var req GradeQuizRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	quizID, _ := c.Params.Get("quizid")

	result, err := v1.NewQuizLogic(c.Request.Context(), s.Core).GradeAttempt(quizID, req.Answers)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}
