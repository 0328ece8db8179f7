package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhall-ai/studyhall/app/response"
)

type HealthResponse struct {
	Status             string `json:"status"`
	ChatModel          string `json:"chat_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}

func (s *HttpSrv) Health(c *gin.Context) {
	response.APISuccess(c, HealthResponse{
		Status:             "ok",
		ChatModel:          s.Core.Srv().AI().Model(),
		EmbeddingDimension: s.Core.Srv().AI().Dimension(),
	})
}
