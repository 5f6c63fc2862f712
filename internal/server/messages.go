package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/copilot-bridge/internal/copilot"
	"github.com/tingly-dev/copilot-bridge/internal/translate"
)

// handleMessages serves POST /v1/messages: full Anthropic -> OpenAI -> Anthropic
// translation, streaming or not.
func (s *Server) handleMessages(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, errTypeInvalidRequest, "failed to read request body")
		return
	}

	var req translate.MessagesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, errTypeInvalidRequest, err.Error())
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

	// The reverse rename map is learned from the model list; populate it on
	// demand so the first request after boot resolves correctly.
	if !s.renamer.HasLearned() {
		if _, err := s.getModels(ctx, ghToken); err != nil {
			logrus.Warnf("model list fetch for rename resolution failed, using model names as-is: %v", err)
		}
	}

	displayModel := req.Model
	req.Model = s.renamer.Resolve(req.Model)

	openaiReq := translate.TranslateRequest(&req)
	vision := translate.HasVisionContent(&req)
	agent := translate.IsAgentCall(&req)
	streaming := req.Stream != nil && *req.Stream

	logrus.WithFields(logrus.Fields{
		"model":    openaiReq.Model,
		"stream":   streaming,
		"messages": len(req.Messages),
		"vision":   vision,
		"agent":    agent,
	}).Info("messages request")

	payload, err := json.Marshal(openaiReq)
	if err != nil {
		logrus.Errorf("failed to serialize upstream request: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	resp, err := s.client.ChatCompletionsRaw(ctx, copilotToken, payload, vision, agent)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, errTypeAPI, err.Error())
		return
	}
	defer resp.Body.Close()

	if streaming {
		s.streamMessages(c, resp.Body, displayModel)
		return
	}

	var completion copilot.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		logrus.Errorf("failed to parse upstream response: %v", err)
		abortWithError(c, http.StatusBadGateway, errTypeAPI, "invalid upstream response")
		return
	}

	out := translate.TranslateResponse(&completion, s.config.EmulateThinking)
	out.Model = displayModel
	c.JSON(http.StatusOK, out)
}

// streamMessages re-frames the upstream SSE stream as Anthropic events. The
// upstream body is read until [DONE] or EOF; unparseable chunks are skipped.
func (s *Server) streamMessages(c *gin.Context, upstream io.Reader, displayModel string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, errTypeAPI, "streaming not supported by this connection")
		return
	}

	state := translate.NewStreamState(s.config.EmulateThinking)
	framer := &translate.SSEFramer{}

	writeEvents := func(events []translate.StreamEvent) {
		for _, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				logrus.Errorf("failed to serialize stream event: %v", err)
				continue
			}
			c.SSEvent(ev.EventType(), string(data))
		}
		if len(events) > 0 {
			flusher.Flush()
		}
	}

	buf := make([]byte, 4096)
	done := false
	for !done {
		n, readErr := upstream.Read(buf)
		if n > 0 {
			framer.Feed(string(buf[:n]))
			for {
				data, ok := framer.Next()
				if !ok {
					break
				}
				if data == "[DONE]" {
					done = true
					break
				}
				var chunk copilot.ChatCompletionChunk
				if err := json.Unmarshal([]byte(data), &chunk); err != nil {
					logrus.Debugf("skipping unparseable stream chunk: %v", err)
					continue
				}
				chunk.Model = displayModel
				writeEvents(translate.TranslateChunk(&chunk, state))
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				logrus.Errorf("upstream stream read failed: %v", readErr)
			}
			break
		}
	}

	// Flush whatever the state machine still holds; a no-op when the stream
	// already finished cleanly.
	writeEvents(state.Finish())
}
