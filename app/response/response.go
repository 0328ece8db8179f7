package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

const (
	RequestIDKey = "request_id"
	ResponseKey  = "response_key"
)

type EmptyStruct struct {
}

type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

// Meta carries the machine readable failure classification next to the
// user facing message.
type Meta struct {
	Code      int    `json:"code"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// NewResponse prepares the per request response envelope.
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := &Response{
			Meta: Meta{
				Code:      http.StatusOK,
				RequestID: utils.GenUniqIDStr(),
			},
			Data: EmptyStruct{},
		}
		c.Set(ResponseKey, res)
		c.Set(RequestIDKey, res.Meta.RequestID)
	}
}

func APISuccess(c *gin.Context, data interface{}) {
	res := c.MustGet(ResponseKey).(*Response)
	if data != nil {
		res.Data = data
	}
	c.JSON(http.StatusOK, res)
}

func APIError(c *gin.Context, err error) {
	c.Abort()

	res := c.MustGet(ResponseKey).(*Response)
	if cerrptr, ok := err.(*errors.CustomizedError); !ok {
		res.Meta.Code = http.StatusInternalServerError
		res.Meta.Message = err.Error()
	} else {
		res.Meta.Code = cerrptr.GetCode()
		res.Meta.Kind = string(cerrptr.GetKind())
		res.Meta.Message = cerrptr.Message()
		if data := cerrptr.GetData(); data != nil {
			res.Data = data
		}
	}

	c.JSON(res.Meta.Code, res)
	printErrorLog(c, res, err)
}

func printErrorLog(c *gin.Context, res *Response, err error) {
	slog.Error("response error",
		slog.String("request_uri", c.Request.URL.Path),
		slog.String("request_id", res.Meta.RequestID),
		slog.Int64("end_time", time.Now().Unix()),
		slog.Int("code", res.Meta.Code),
		slog.String("kind", res.Meta.Kind),
		slog.String("error", err.Error()))
}
