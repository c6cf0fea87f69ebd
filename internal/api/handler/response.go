package handler

import (
	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondError writes {"success": false, "error": msg, "code": code}.
// Success payloads are endpoint-specific: the action and settlement endpoints
// serve fixed wire contracts consumed by wallet clients and operator tooling.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}
