package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bare-backend/internal/compat"
	"bare-backend/internal/llm"
	openai "bare-backend/internal/llm/openai"
	"bare-backend/internal/ocr"
	"bare-backend/internal/reports"
	"bare-backend/internal/shared/config"
	"bare-backend/internal/shared/metrics"
	"bare-backend/internal/shared/server/middleware"
	"bare-backend/internal/shared/server/respond"
	"bare-backend/internal/shared/storage/db"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(rateLimits()),
	)

	// Dependencies
	var llmClient llm.Client
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.CompatModel, cfg.VisionModel, promptVersion(cfg.PairsPolicy))
	if err != nil {
		log.Printf("llm client not configured: %v", err)
	} else {
		llmClient = client
	}

	repo := buildReportsRepo(cfg)
	reportsSvc := reports.NewService(repo)
	reportsHandler := reports.NewHandler(reportsSvc)
	compatHandler := compat.NewHandler(llmClient, cfg.PairsPolicy, reportsSvc)
	ocrHandler := ocr.NewHandler(llmClient)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	compatHandler.RegisterRoutes(api)
	ocrHandler.RegisterRoutes(api)
	reportsHandler.RegisterRoutes(api)

	return r
}

func buildReportsRepo(cfg config.Config) reports.Repo {
	if cfg.DatabaseURL == "" {
		return reports.NewMemoryRepo(cfg.ReportHistoryLimit)
	}
	conn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return reports.NewMemoryRepo(cfg.ReportHistoryLimit)
	}
	if err := db.RunMigrations(context.Background(), conn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		conn.Close()
		return reports.NewMemoryRepo(cfg.ReportHistoryLimit)
	}
	return &reports.PGRepo{DB: conn}
}

// promptVersion maps the pair policy onto the routine prompt revision:
// the legacy completion policy needs the prompt that demands a full pair
// matrix.
func promptVersion(pairsPolicy string) string {
	if pairsPolicy == config.PairPolicyCompletion {
		return "v1"
	}
	return "v2"
}

func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost {
				return "ANALYSIS"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			// Analysis endpoints each cost one upstream model call.
			"ANALYSIS": {Rate: 0.5, Burst: 5},
			"DEFAULT":  {Rate: 5, Burst: 20},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
