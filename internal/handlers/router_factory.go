package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"lesewerk/internal/config"
	"lesewerk/internal/exercise"
	"lesewerk/internal/observability"
	"lesewerk/internal/services"
	"lesewerk/internal/store"
	"lesewerk/internal/version"
)

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	content services.ContentServiceInterface,
	session *exercise.Session,
	st *store.Store,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "lesewerk"})
	})

	// OpenTelemetry middleware for HTTP tracing with automatic error attributes
	router.Use(observability.GinMiddlewareWithErrorHandling("lesewerk"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	contentHandler := NewContentHandler(content, cfg, logger)
	exerciseHandler := NewExerciseHandler(session, st, cfg, logger)
	libraryHandler := NewLibraryHandler(st, session, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "lesewerk",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		v1.GET("/levels", contentHandler.Levels)
		v1.GET("/theme/random", contentHandler.RandomTheme)
		v1.POST("/translate", contentHandler.TranslateText)

		words := v1.Group("/words")
		{
			words.POST("/translate", contentHandler.TranslateWord)
			words.POST("/explain", contentHandler.ExplainWord)
			words.POST("/distractors", contentHandler.Distractors)
		}

		ex := v1.Group("/exercise")
		{
			ex.POST("/generate", exerciseHandler.Generate)
			ex.GET("/state", exerciseHandler.State)
			ex.POST("/save", exerciseHandler.SaveCurrent)

			ex.POST("/quiz/answer", exerciseHandler.Answer)
			ex.POST("/quiz/submit", exerciseHandler.Submit)
			ex.POST("/quiz/reset", exerciseHandler.ResetQuiz)

			ex.POST("/cloze", exerciseHandler.StartCloze)
			ex.POST("/cloze/from-words", exerciseHandler.StartClozeFromWords)
			ex.POST("/cloze/answer", exerciseHandler.AnswerCloze)
			ex.POST("/cloze/check", exerciseHandler.CheckCloze)
			ex.DELETE("/cloze", exerciseHandler.ClearCloze)
		}

		favorites := v1.Group("/favorites")
		{
			favorites.GET("", libraryHandler.GetFavoriteLists)
			favorites.POST("", libraryHandler.CreateFavoriteList)
			favorites.DELETE("/:id", libraryHandler.DeleteFavoriteList)
			favorites.POST("/:id/words", libraryHandler.AddFavoriteWord)
			favorites.DELETE("/:id/words/:word", libraryHandler.RemoveFavoriteWord)
		}

		texts := v1.Group("/texts")
		{
			texts.GET("", libraryHandler.GetSavedTexts)
			texts.POST("/:index/load", libraryHandler.LoadSavedText)
			texts.DELETE("", libraryHandler.DeleteSavedText)
			texts.GET("/export", libraryHandler.ExportTexts)
		}
	}

	return router
}
