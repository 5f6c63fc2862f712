package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/copilot-bridge/internal/copilot"
)

// AnthropicModelsResponse is the envelope served when the request carries an
// anthropic-version header.
type AnthropicModelsResponse struct {
	Data    []AnthropicModel `json:"data"`
	FirstID *string          `json:"first_id"`
	HasMore bool             `json:"has_more"`
	LastID  *string          `json:"last_id"`
}

type AnthropicModel struct {
	CreatedAt   string `json:"created_at"`
	DisplayName string `json:"display_name"`
	ID          string `json:"id"`
	Type        string `json:"type"`
}

// getModels returns the model list with display names applied, fetching and
// caching it when the cached copy is missing or stale. Fetching also registers
// every upstream/display pair with the renamer.
func (s *Server) getModels(ctx context.Context, ghToken string) (*copilot.ModelsResponse, error) {
	s.modelsMu.RLock()
	if s.models != nil && time.Since(s.modelsAt) < s.config.ModelsCacheTTL {
		cached := s.models
		s.modelsMu.RUnlock()
		return cached, nil
	}
	s.modelsMu.RUnlock()

	copilotToken, err := s.tokens.GetCopilotToken(ctx, ghToken)
	if err != nil {
		return nil, err
	}

	models, err := s.client.FetchModels(ctx, copilotToken)
	if err != nil {
		return nil, err
	}

	for i := range models.Data {
		upstream := models.Data[i].ID
		display := s.renamer.Rename(upstream)
		if display != upstream {
			s.renamer.Register(upstream, display)
			models.Data[i].ID = display
		}
	}

	s.modelsMu.Lock()
	s.models = &models
	s.modelsAt = time.Now()
	s.modelsMu.Unlock()

	logrus.Debugf("model list cached (%d models)", len(models.Data))
	return &models, nil
}

// PrefetchModels warms the model cache with the default credential. Called at
// startup; failures are the caller's to log.
func (s *Server) PrefetchModels(ctx context.Context) error {
	if s.config.GitHubToken == "" {
		return nil
	}
	_, err := s.getModels(ctx, s.config.GitHubToken)
	return err
}

func (s *Server) handleListModels(c *gin.Context) {
	ghToken, ok := s.credential(c)
	if !ok {
		abortWithError(c, http.StatusForbidden, errTypeAuthentication,
			"no GitHub token provided and no default credential configured")
		return
	}

	models, err := s.getModels(c.Request.Context(), ghToken)
	if err != nil {
		logrus.Errorf("model list unavailable: %v", err)
		abortUnavailable(c, http.StatusServiceUnavailable, "model list could not be fetched")
		return
	}

	if c.GetHeader("anthropic-version") != "" {
		c.JSON(http.StatusOK, anthropicModelList(models))
		return
	}
	c.JSON(http.StatusOK, models)
}

func anthropicModelList(models *copilot.ModelsResponse) AnthropicModelsResponse {
	createdAt := time.Now().UTC().Format(time.RFC3339)

	out := AnthropicModelsResponse{Data: make([]AnthropicModel, 0, len(models.Data))}
	for _, m := range models.Data {
		display := m.Name
		if display == "" {
			display = m.ID
		}
		out.Data = append(out.Data, AnthropicModel{
			CreatedAt:   createdAt,
			DisplayName: display,
			ID:          m.ID,
			Type:        "model",
		})
	}
	if len(out.Data) > 0 {
		out.FirstID = &out.Data[0].ID
		out.LastID = &out.Data[len(out.Data)-1].ID
	}
	return out
}
