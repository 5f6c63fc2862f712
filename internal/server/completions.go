package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// handleChatCompletions serves POST /v1/chat/completions: OpenAI passthrough
// with the display model rewritten to its upstream name. Bodies are forwarded
// as raw bytes; only the model field is touched.
func (s *Server) handleChatCompletions(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, errTypeInvalidRequest, "failed to read request body")
		return
	}
	if !gjson.ValidBytes(body) {
		abortWithError(c, http.StatusUnprocessableEntity, errTypeInvalidRequest, "request body is not valid JSON")
		return
	}

	ghToken, ok := s.credential(c)
	if !ok {
		abortWithError(c, http.StatusForbidden, errTypeAuthentication,
			"no GitHub token provided and no default credential configured")
		return
	}

	ctx := c.Request.Context()

	copilotToken, err := s.tokens.GetCopilotToken(ctx, ghToken)
	if err != nil {
		logrus.Errorf("token exchange failed: %v", err)
		abortWithError(c, http.StatusUnauthorized, errTypeAuthentication, "GitHub token exchange failed")
		return
	}

	model := gjson.GetBytes(body, "model").String()
	body, model = s.resolveModelBytes(body, model)

	vision := detectVision(body)
	agent := detectAgent(body)

	logrus.WithFields(logrus.Fields{
		"model":  model,
		"stream": gjson.GetBytes(body, "stream").Bool(),
		"vision": vision,
		"agent":  agent,
	}).Info("chat completions request")

	resp, err := s.client.ChatCompletionsRaw(ctx, copilotToken, body, vision, agent)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, errTypeAPI, err.Error())
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/event-stream") {
		s.pipeStream(c, resp.Body)
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, errTypeAPI, "failed to read upstream response")
		return
	}
	c.Data(http.StatusOK, contentType, respBody)
}

// resolveModelBytes rewrites the model field to its upstream name in place.
// Skipped entirely when no rename could apply.
func (s *Server) resolveModelBytes(body []byte, model string) ([]byte, string) {
	if model == "" || (!s.renamer.HasRules() && !s.renamer.HasLearned()) {
		return body, model
	}
	resolved := s.renamer.Resolve(model)
	if resolved == model {
		return body, model
	}
	rewritten, err := sjson.SetBytes(body, "model", resolved)
	if err != nil {
		logrus.Warnf("failed to rewrite model field, forwarding unchanged: %v", err)
		return body, model
	}
	return rewritten, resolved
}

// pipeStream copies upstream SSE bytes to the client verbatim, flushing as
// they arrive.
func (s *Server) pipeStream(c *gin.Context, upstream io.Reader) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, errTypeAPI, "streaming not supported by this connection")
		return
	}

	buf := make([]byte, 4096)
	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				logrus.Errorf("upstream stream read failed: %v", err)
			}
			return
		}
	}
}

// detectVision reports whether any message content carries an image_url part.
func detectVision(body []byte) bool {
	found := false
	gjson.GetBytes(body, "messages").ForEach(func(_, msg gjson.Result) bool {
		content := msg.Get("content")
		if !content.IsArray() {
			return true
		}
		content.ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "image_url" {
				found = true
				return false
			}
			return true
		})
		return !found
	})
	return found
}

// detectAgent reports whether the conversation already contains assistant or
// tool turns.
func detectAgent(body []byte) bool {
	found := false
	gjson.GetBytes(body, "messages").ForEach(func(_, msg gjson.Result) bool {
		role := msg.Get("role").String()
		if role == "assistant" || role == "tool" {
			found = true
			return false
		}
		return true
	})
	return found
}
