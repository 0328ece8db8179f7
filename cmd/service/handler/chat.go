package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type CreateChatSessionRequest struct {
	CourseID string `json:"course_id" binding:"required"`
}

type CreateChatSessionResponse struct {
	ID string `json:"id"`
}

func (s *HttpSrv) CreateChatSession(c *gin.Context) {
	var req CreateChatSessionRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	id, err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).CreateChatSession(req.CourseID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, CreateChatSessionResponse{ID: id})
}

type ListChatSessionsRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListChatSessionsResponse struct {
	List []types.ChatSession `json:"list"`
}

func (s *HttpSrv) ListChatSessions(c *gin.Context) {
	var req ListChatSessionsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).ListChatSessions(req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListChatSessionsResponse{List: list})
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *HttpSrv) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	sessionID, _ := c.Params.Get("sessionid")

	result, err := v1.NewChatLogic(c.Request.Context(), s.Core).SendMessage(sessionID, req.Message)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ListSessionMessagesRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListSessionMessagesResponse struct {
	List []types.ChatMessage `json:"list"`
}

func (s *HttpSrv) ListSessionMessages(c *gin.Context) {
	var req ListSessionMessagesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	sessionID, _ := c.Params.Get("sessionid")

	list, err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).ListSessionMessages(sessionID, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListSessionMessagesResponse{List: list})
}

func (s *HttpSrv) CloseChatSession(c *gin.Context) {
	sessionID, _ := c.Params.Get("sessionid")

	if err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).CloseChatSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type RenameChatSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *HttpSrv) RenameChatSession(c *gin.Context) {
	var req RenameChatSessionRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	sessionID, _ := c.Params.Get("sessionid")

	if err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).RenameChatSession(sessionID, req.Title); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteChatSession(c *gin.Context) {
	sessionID, _ := c.Params.Get("sessionid")

	if err := v1.NewChatSessionLogic(c.Request.Context(), s.Core).DeleteChatSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
