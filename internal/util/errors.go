package util

import (
	"os"

	"github.com/gin-gonic/gin"

	"priceharvester/internal/logger"
)

// SafeErrorResponse returns a JSON error response, logging details but only exposing safe info to users
func SafeErrorResponse(c *gin.Context, statusCode int, userMessage string, err error) {
	if err != nil {
		logger.For("http").Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Int("status", statusCode).
			Msg(userMessage)
	}

	response := gin.H{
		"success": false,
		"message": userMessage,
	}

	// Only include detailed error in development mode
	if os.Getenv("GIN_MODE") != "release" && err != nil {
		response["error"] = err.Error()
	}

	c.JSON(statusCode, response)
}
