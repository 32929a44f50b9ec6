package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/credential"
)

const (
	headerAPIKey    = "X-Goog-Api-Key"
	headerRequestID = "X-Request-ID"
)

// NewRouter wires the handler. filesDir, when set, is served under /files
// for locally stored slide images.
func NewRouter(handler *Handler, filesDir string, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(hostCredential())

	r.GET("/health", handler.Health)
	if filesDir != "" {
		r.Static("/files", filesDir)
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/presets", handler.Presets)

		v1.GET("/credential", handler.GetCredential)
		v1.PUT("/credential", handler.ConnectCredential)
		v1.DELETE("/credential", handler.DisconnectCredential)

		v1.POST("/scripts/improve", handler.ImproveScript)

		carousels := v1.Group("/carousels")
		carousels.POST("", handler.CreateCarousel)
		carousels.GET("/:id", handler.GetCarousel)
		carousels.DELETE("/:id", handler.DeleteCarousel)
		carousels.POST("/:id/regenerate", handler.RegenerateAll)
		carousels.POST("/:id/slides", handler.InsertSlide)
		carousels.POST("/:id/slides/:slideId/regenerate", handler.RegenerateSlide)
		carousels.POST("/:id/cta", handler.AppendCTA)
		carousels.GET("/:id/export", handler.Export)
	}

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(headerRequestID, requestID)

		log.Debug("request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.Next()
		log.Info("request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// hostCredential hands a key sent by the embedding host to the credential
// chain through the request context.
func hostCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(headerAPIKey); key != "" {
			c.Request = c.Request.WithContext(credential.WithKey(c.Request.Context(), key))
		}
		c.Next()
	}
}
