package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendarcade/squadgames/internal/api/handler"
	"github.com/sendarcade/squadgames/internal/config"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	Actions handler.ActionJoiner
	Ingest  handler.WebhookProcessor
	Settler handler.Settler
	Cfg     *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, and CORS rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware())

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	actionH := handler.NewActionHandler(deps.Actions)
	webhookH := handler.NewWebhookHandler(deps.Ingest)
	settleH := handler.NewSettlementHandler(deps.Settler)

	api := r.Group("/api")
	{
		// Deposit action (wallet clients)
		api.POST("/actions/game", actionH.Join)

		// Chain-event webhook (provider)
		api.POST("/webhook", webhookH.Receive)

		// Settlement trigger (operator / scheduler)
		api.POST("/settle", settleH.Settle)
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware allows any origin: the deposit action is fetched directly by
// wallet clients, which require permissive CORS on every response.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Content-Encoding, Accept-Encoding")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
