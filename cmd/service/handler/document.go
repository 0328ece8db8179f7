package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/app/logic/v1/process"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

type CreateDocumentRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type CreateDocumentResponse struct {
	ID string `json:"id"`
}

func (s *HttpSrv) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	courseID, _ := c.Params.Get("courseid")

	id, err := v1.NewDocumentLogic(c.Request.Context(), s.Core).CreateDocument(courseID, req.Title, req.Content)
	if err != nil {
		response.APIError(c, err)
		return
	}

	scope, _ := types.GetTenantScope(c.Request.Context())
	process.Push(process.IngestRequest{TenantID: scope.TenantID, DocumentID: id})

	response.APISuccess(c, CreateDocumentResponse{ID: id})
}

func (s *HttpSrv) GetDocument(c *gin.Context) {
	documentID, _ := c.Params.Get("documentid")

	doc, err := v1.NewDocumentLogic(c.Request.Context(), s.Core).GetDocument(documentID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

type ListDocumentsRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListDocumentsResponse struct {
	List []types.Document `json:"list"`
}

func (s *HttpSrv) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	courseID, _ := c.Params.Get("courseid")

	list, err := v1.NewDocumentLogic(c.Request.Context(), s.Core).ListDocuments(courseID, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListDocumentsResponse{List: list})
}

type UpdateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *HttpSrv) UpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	documentID, _ := c.Params.Get("documentid")

	err := v1.NewDocumentLogic(c.Request.Context(), s.Core).UpdateDocument(documentID, types.UpdateDocumentArgs{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}

	if req.Content != "" {
		scope, _ := types.GetTenantScope(c.Request.Context())
		process.Push(process.IngestRequest{TenantID: scope.TenantID, DocumentID: documentID})
	}

	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteDocument(c *gin.Context) {
	documentID, _ := c.Params.Get("documentid")

	if err := v1.NewDocumentLogic(c.Request.Context(), s.Core).DeleteDocument(documentID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type ListDocumentChunksResponse struct {
	List []types.Chunk `json:"list"`
}

func (s *HttpSrv) ListDocumentChunks(c *gin.Context) {
	documentID, _ := c.Params.Get("documentid")

	chunks, err := v1.NewDocumentLogic(c.Request.Context(), s.Core).ListChunks(documentID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListDocumentChunksResponse{List: chunks})
}

// IngestDocument runs the pipeline inline so the caller sees the result.
func (s *HttpSrv) IngestDocument(c *gin.Context) {
	documentID, _ := c.Params.Get("documentid")

	if err := v1.NewDocumentLogic(c.Request.Context(), s.Core).Ingest(documentID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
