package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/copilot-bridge/internal/token"
	"github.com/tingly-dev/copilot-bridge/internal/translate"
)

// handleCountTokens serves POST /v1/messages/count_tokens with a local
// tiktoken approximation; nothing is sent upstream.
func (s *Server) handleCountTokens(c *gin.Context) {
	var req translate.MessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, errTypeInvalidRequest, err.Error())
		return
	}

	count, err := token.CountInputTokens(&req)
	if err != nil {
		logrus.Errorf("token counting failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"input_tokens": count})
}
