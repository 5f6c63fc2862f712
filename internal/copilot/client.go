package copilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Client talks to the GitHub token exchange endpoint and the Copilot chat
// backend. Base URLs are overridable for tests.
type Client struct {
	httpClient    *http.Client
	githubBaseURL string
	copilotBase   string
	vscodeVersion string
}

func NewClient(accountType, vscodeVersion string) *Client {
	return &Client{
		httpClient:    &http.Client{},
		githubBaseURL: GitHubAPIBaseURL,
		copilotBase:   CopilotBaseURL(accountType),
		vscodeVersion: vscodeVersion,
	}
}

// FetchToken exchanges a GitHub token for a short-lived Copilot token.
func (c *Client) FetchToken(ctx context.Context, ghToken string) (TokenResponse, error) {
	logrus.Debug("fetching copilot token from GitHub API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.githubBaseURL+"/copilot_internal/v2/token", nil)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header = githubHeaders(ghToken, c.vscodeVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("send token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return TokenResponse{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return TokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	logrus.Debug("copilot token fetched successfully")
	return tok, nil
}

// FetchModels lists the models available to the given Copilot token.
func (c *Client) FetchModels(ctx context.Context, copilotToken string) (ModelsResponse, error) {
	url := c.copilotBase + "/models"
	logrus.Debugf("fetching models from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ModelsResponse{}, fmt.Errorf("build models request: %w", err)
	}
	req.Header = copilotHeaders(copilotToken, c.vscodeVersion, false)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ModelsResponse{}, fmt.Errorf("send models request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ModelsResponse{}, fmt.Errorf("read models response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ModelsResponse{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var models ModelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		logrus.Errorf("failed to parse models response (status=%d): %v", resp.StatusCode, err)
		return ModelsResponse{}, fmt.Errorf("parse models response: %w", err)
	}
	logrus.Debugf("fetched %d models", len(models.Data))
	return models, nil
}

// ChatCompletionsRaw posts a pre-serialized chat completions body and returns
// the raw response for the caller to consume (and close). Non-2xx statuses
// are turned into a StatusError with the upstream body.
func (c *Client) ChatCompletionsRaw(ctx context.Context, copilotToken string, body []byte, vision, isAgent bool) (*http.Response, error) {
	url := c.copilotBase + "/chat/completions"
	logrus.Debugf("sending chat completions request (body=%dB vision=%v agent=%v)", len(body), vision, isAgent)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat completions request: %w", err)
	}
	req.Header = copilotHeaders(copilotToken, c.vscodeVersion, vision)
	if isAgent {
		req.Header.Set("x-initiator", "agent")
	} else {
		req.Header.Set("x-initiator", "user")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat completions request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		logrus.Errorf("copilot API returned %d: %s", resp.StatusCode, string(errBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	return resp, nil
}

// SetBaseURLs points the client at alternate endpoints. Test hook.
func (c *Client) SetBaseURLs(github, copilot string) {
	if github != "" {
		c.githubBaseURL = github
	}
	if copilot != "" {
		c.copilotBase = copilot
	}
}
