package service

import (
	"github.com/gin-gonic/gin"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/cmd/service/handler"
	"github.com/studyhall-ai/studyhall/cmd/service/middleware"
	"github.com/studyhall-ai/studyhall/pkg/metrics"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			scope, _ := types.GetTenantScope(c.Request.Context())
			return key + ":" + scope.TenantID + ":" + scope.UserID
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	userLimit := GetUserLimitBuilder(s.Core)

	s.Engine.Use(response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.GET("/ping", s.Health)
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	apiV1 := s.Engine.Group("/api/v1")
	apiV1.Use(middleware.Observe(s.Core), middleware.Authorization(s.Core))
	{
		course := apiV1.Group("/courses")
		{
			course.POST("", s.CreateCourse)
			course.GET("", s.ListCourses)
			course.GET("/:courseid", s.GetCourse)
			course.DELETE("/:courseid", s.DeleteCourse)

			course.POST("/:courseid/documents", s.CreateDocument)
			course.GET("/:courseid/documents", s.ListDocuments)
		}

		document := apiV1.Group("/documents")
		{
			document.GET("/:documentid", s.GetDocument)
			document.GET("/:documentid/chunks", s.ListDocumentChunks)
			document.PUT("/:documentid", s.UpdateDocument)
			document.DELETE("/:documentid", s.DeleteDocument)
			document.POST("/:documentid/ingest", userLimit("ingest", core.WithLimit(20)), s.IngestDocument)
		}

		chat := apiV1.Group("/chat")
		{
			chat.POST("/sessions", s.CreateChatSession)
			chat.GET("/sessions", s.ListChatSessions)
			chat.GET("/sessions/:sessionid/messages", s.ListSessionMessages)
			chat.POST("/sessions/:sessionid/messages", userLimit("chat", core.WithLimit(30)), s.SendMessage)
			chat.PUT("/sessions/:sessionid/title", s.RenameChatSession)
			chat.POST("/sessions/:sessionid/close", s.CloseChatSession)
			chat.DELETE("/sessions/:sessionid", s.DeleteChatSession)
		}

		quiz := apiV1.Group("/quizzes")
		{
			quiz.POST("", userLimit("quiz", core.WithLimit(10)), s.GenerateQuiz)
			quiz.GET("", s.ListQuizzes)
			quiz.GET("/:quizid", s.GetQuiz)
			quiz.DELETE("/:quizid", s.DeleteQuiz)
			quiz.POST("/:quizid/grade", s.GradeQuiz)
			quiz.GET("/:quizid/attempts", s.ListQuizAttempts)
			quiz.GET("/attempts/:attemptid", s.GetQuizAttempt)
		}
	}
}
