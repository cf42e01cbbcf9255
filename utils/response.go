package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondWithData writes {"success": true, "data": ...}.
func RespondWithData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// RespondWithError writes the failure envelope with a code derived from the
// HTTP status, e.g. 404 -> "not_found".
func RespondWithError(c *gin.Context, status int, message string) {
	RespondWithCode(c, status, statusCode(status), message)
}

func RespondWithCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": message, "code": code})
}

func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
