package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// applyModelList mimics startup: rename each model then register the pair.
func applyModelList(r *Renamer, models []string) map[string]string {
	out := make(map[string]string, len(models))
	for _, m := range models {
		display := r.Rename(m)
		r.Register(m, display)
		out[m] = display
	}
	return out
}

func TestAutoRenameVersionFirst(t *testing.T) {
	cases := map[string]string{
		"claude-3.5-sonnet": "claude-sonnet-3-5",
		"claude-3.5-haiku":  "claude-haiku-3-5",
		"claude-3-opus":     "claude-opus-3",
	}
	for in, want := range cases {
		got, ok := autoRename(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
}

func TestAutoRenameVariantFirstWithDots(t *testing.T) {
	cases := map[string]string{
		"claude-sonnet-4.5":    "claude-sonnet-4-5",
		"claude-opus-4.6":      "claude-opus-4-6",
		"claude-opus-4.6-fast": "claude-opus-4-6-fast",
		"claude-sonnet-4.6":    "claude-sonnet-4-6",
		"claude-haiku-4.5":     "claude-haiku-4-5",
	}
	for in, want := range cases {
		got, ok := autoRename(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
}

func TestAutoRenameNoChangeNeeded(t *testing.T) {
	for _, name := range []string{"claude-sonnet-4", "claude-opus-4", "gpt-4o", "o1-mini"} {
		_, ok := autoRename(name)
		assert.False(t, ok, name)
	}
}

func TestRealCopilotModelList(t *testing.T) {
	r := New(true, nil)
	models := []string{
		"claude-opus-4.6-fast",
		"claude-opus-4.6",
		"claude-sonnet-4.6",
		"gpt-5.2-codex",
		"gpt-5.3-codex",
		"gpt-5-mini",
		"gpt-5",
		"gpt-4o-mini-2024-07-18",
		"gpt-4o-2024-11-20",
		"gpt-4o-2024-08-06",
		"grok-code-fast-1",
		"gpt-5.1",
		"gpt-5.1-codex",
		"gpt-5.1-codex-mini",
		"gpt-5.1-codex-max",
		"gpt-5-codex",
		"text-embedding-3-small",
		"text-embedding-3-small-inference",
		"claude-sonnet-4",
		"claude-sonnet-4.5",
		"claude-opus-4.5",
		"claude-haiku-4.5",
		"gemini-3-pro-preview",
		"gemini-3-flash-preview",
		"gemini-2.5-pro",
		"gpt-4.1-2025-04-14",
		"oswe-vscode-prime",
		"oswe-vscode-secondary",
		"gpt-5.2",
		"gpt-41-copilot",
		"gpt-3.5-turbo-0613",
		"gpt-4",
		"gpt-4-0613",
		"gpt-4-0125-preview",
		"gpt-4o-2024-05-13",
		"gpt-4-o-preview",
		"gpt-4.1",
		"gpt-3.5-turbo",
		"gpt-4o-mini",
		"gpt-4o",
		"text-embedding-ada-002",
	}

	got := applyModelList(r, models)

	// Claude models get dot->dash normalization.
	assert.Equal(t, "claude-opus-4-6-fast", got["claude-opus-4.6-fast"])
	assert.Equal(t, "claude-opus-4-6", got["claude-opus-4.6"])
	assert.Equal(t, "claude-sonnet-4-6", got["claude-sonnet-4.6"])
	assert.Equal(t, "claude-sonnet-4-5", got["claude-sonnet-4.5"])
	assert.Equal(t, "claude-opus-4-5", got["claude-opus-4.5"])
	assert.Equal(t, "claude-haiku-4-5", got["claude-haiku-4.5"])

	// No dot in version means unchanged.
	assert.Equal(t, "claude-sonnet-4", got["claude-sonnet-4"])

	// Non-claude models unchanged.
	assert.Equal(t, "gpt-4o", got["gpt-4o"])
	assert.Equal(t, "gpt-5", got["gpt-5"])
	assert.Equal(t, "gpt-4o-mini", got["gpt-4o-mini"])
	assert.Equal(t, "gemini-2.5-pro", got["gemini-2.5-pro"])
	assert.Equal(t, "text-embedding-3-small", got["text-embedding-3-small"])
}

func TestResolveLearnedFromModelList(t *testing.T) {
	r := New(true, nil)
	applyModelList(r, []string{"claude-sonnet-4.5", "claude-opus-4.6-fast", "claude-sonnet-4"})

	assert.Equal(t, "claude-sonnet-4.5", r.Resolve("claude-sonnet-4-5"))
	assert.Equal(t, "claude-opus-4.6-fast", r.Resolve("claude-opus-4-6-fast"))
	// No rename happened, so resolve is identity.
	assert.Equal(t, "claude-sonnet-4", r.Resolve("claude-sonnet-4"))
}

func TestResolveVersionFirstLearned(t *testing.T) {
	r := New(true, nil)
	applyModelList(r, []string{"claude-3.5-sonnet"})

	assert.Equal(t, "claude-3.5-sonnet", r.Resolve("claude-sonnet-3-5"))
}

func TestCustomOverridesAuto(t *testing.T) {
	r := New(true, map[string]string{"claude-sonnet-4.5": "my-sonnet"})
	got := applyModelList(r, []string{"claude-sonnet-4.5"})

	assert.Equal(t, "my-sonnet", got["claude-sonnet-4.5"])
	assert.Equal(t, "claude-sonnet-4.5", r.Resolve("my-sonnet"))
}

func TestCustomWithDateSuffix(t *testing.T) {
	r := New(true, map[string]string{"claude-sonnet-4": "claude-sonnet-4-20250514"})
	got := applyModelList(r, []string{"claude-sonnet-4"})

	assert.Equal(t, "claude-sonnet-4-20250514", got["claude-sonnet-4"])
	assert.Equal(t, "claude-sonnet-4", r.Resolve("claude-sonnet-4-20250514"))
}

func TestCustomOnlyNoAuto(t *testing.T) {
	r := New(false, map[string]string{"foo": "bar"})
	assert.Equal(t, "bar", r.Rename("foo"))
	assert.Equal(t, "foo", r.Resolve("bar"))
	// Auto disabled: dots not normalized.
	assert.Equal(t, "claude-sonnet-4.5", r.Rename("claude-sonnet-4.5"))
}

func TestAutoDisabledPassesThrough(t *testing.T) {
	r := New(false, nil)
	assert.Equal(t, "claude-3.5-sonnet", r.Rename("claude-3.5-sonnet"))
	assert.Equal(t, "claude-sonnet-4.5", r.Rename("claude-sonnet-4.5"))
	assert.False(t, r.HasRules())
}

func TestUnknownModelPassesThrough(t *testing.T) {
	r := New(true, nil)
	assert.Equal(t, "some-unknown-model", r.Rename("some-unknown-model"))
	assert.Equal(t, "some-unknown-model", r.Resolve("some-unknown-model"))
}

func TestDotsBetweenDigitsReplaced(t *testing.T) {
	assert.Equal(t, "4-6", replaceVersionDots("4.6"))
	assert.Equal(t, "3-5-1", replaceVersionDots("3.5.1"))
	assert.Equal(t, "sonnet-4-5", replaceVersionDots("sonnet-4.5"))
	assert.Equal(t, "opus-4-6-fast", replaceVersionDots("opus-4.6-fast"))
}

func TestDotsNotBetweenDigitsKept(t *testing.T) {
	assert.Equal(t, "v2.beta", replaceVersionDots("v2.beta"))
	assert.Equal(t, "sonnet", replaceVersionDots("sonnet"))
	assert.Equal(t, ".5", replaceVersionDots(".5"))
	assert.Equal(t, "4.", replaceVersionDots("4."))
}

func TestHasLearned(t *testing.T) {
	r := New(true, nil)
	assert.False(t, r.HasLearned())
	applyModelList(r, []string{"claude-sonnet-4.5"})
	assert.True(t, r.HasLearned())
}
