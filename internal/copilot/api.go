package copilot

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	editorPluginVersion = "copilot-chat/0.26.7"
	userAgent           = "GitHubCopilotChat/0.26.7"
	apiVersion          = "2025-04-01"

	// GitHubAPIBaseURL hosts the token exchange endpoint.
	GitHubAPIBaseURL = "https://api.github.com"
)

// CopilotBaseURL returns the Copilot API base for the given account type.
// Individual accounts use the bare domain; business and enterprise get their
// own subdomain.
func CopilotBaseURL(accountType string) string {
	if accountType == "individual" {
		return "https://api.githubcopilot.com"
	}
	return "https://api." + accountType + ".githubcopilot.com"
}

// copilotHeaders builds the editor-identifying header set for Copilot API
// calls. Every call gets a fresh x-request-id.
func copilotHeaders(copilotToken, vscodeVersion string, vision bool) http.Header {
	h := http.Header{}
	h.Set("authorization", "Bearer "+copilotToken)
	h.Set("content-type", "application/json")
	h.Set("copilot-integration-id", "vscode-chat")
	h.Set("editor-version", "vscode/"+vscodeVersion)
	h.Set("editor-plugin-version", editorPluginVersion)
	h.Set("user-agent", userAgent)
	h.Set("openai-intent", "conversation-panel")
	h.Set("x-github-api-version", apiVersion)
	h.Set("x-request-id", uuid.NewString())
	h.Set("x-vscode-user-agent-library-version", "electron-fetch")
	if vision {
		h.Set("copilot-vision-request", "true")
	}
	return h
}

// githubHeaders builds the header set for the GitHub token exchange call.
// The GitHub API wants the raw credential with a "token" scheme.
func githubHeaders(githubToken, vscodeVersion string) http.Header {
	h := http.Header{}
	h.Set("content-type", "application/json")
	h.Set("accept", "application/json")
	h.Set("authorization", "token "+githubToken)
	h.Set("editor-version", "vscode/"+vscodeVersion)
	h.Set("editor-plugin-version", editorPluginVersion)
	h.Set("user-agent", userAgent)
	h.Set("x-github-api-version", apiVersion)
	h.Set("x-vscode-user-agent-library-version", "electron-fetch")
	return h
}
