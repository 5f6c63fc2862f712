package rename

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Renamer maps model IDs between their upstream (Copilot) form and the
// display form shown to clients.
//
// Forward (Rename): pattern-based, applied to each model ID when the model
// list is fetched. Two claude shapes are handled:
//
//	version-first: claude-3.5-sonnet -> claude-sonnet-3-5 (reorder + dot->dash)
//	variant-first: claude-sonnet-4.5 -> claude-sonnet-4-5 (dot->dash only)
//
// Reverse (Resolve): custom mappings first, then a learned map built from the
// actual model list, then identity.
type Renamer struct {
	autoEnabled   bool
	customForward map[string]string
	customReverse map[string]string

	mu             sync.RWMutex
	learnedReverse map[string]string
}

// New builds a Renamer. custom maps upstream names to display names and takes
// priority over auto rules in both directions.
func New(autoEnabled bool, custom map[string]string) *Renamer {
	reverse := make(map[string]string, len(custom))
	for k, v := range custom {
		reverse[v] = k
	}
	if autoEnabled || len(custom) > 0 {
		logrus.Infof("model renaming active (auto=%v, custom=%d)", autoEnabled, len(custom))
	}
	return &Renamer{
		autoEnabled:    autoEnabled,
		customForward:  custom,
		customReverse:  reverse,
		learnedReverse: make(map[string]string),
	}
}

// Rename maps an upstream model ID to its display name. Custom mappings take
// priority over auto rules; unmatched names pass through unchanged.
func (r *Renamer) Rename(upstreamName string) string {
	if custom, ok := r.customForward[upstreamName]; ok {
		return custom
	}
	if r.autoEnabled {
		if renamed, ok := autoRename(upstreamName); ok {
			return renamed
		}
	}
	return upstreamName
}

// Register records a concrete upstream/display pair learned from the model
// list. Identity pairs are not stored.
func (r *Renamer) Register(upstreamName, displayName string) {
	if upstreamName == displayName {
		return
	}
	r.mu.Lock()
	r.learnedReverse[displayName] = upstreamName
	r.mu.Unlock()
}

// Resolve maps a display name back to the upstream model ID.
// Priority: custom, then learned, then pass through.
func (r *Renamer) Resolve(displayName string) string {
	if custom, ok := r.customReverse[displayName]; ok {
		return custom
	}
	r.mu.RLock()
	learned, ok := r.learnedReverse[displayName]
	r.mu.RUnlock()
	if ok {
		return learned
	}
	return displayName
}

// HasRules reports whether any renaming can take place at all. Used as a fast
// path to skip request body rewrites when nothing would change.
func (r *Renamer) HasRules() bool {
	return r.autoEnabled || len(r.customForward) > 0
}

// HasLearned reports whether any mapping has been learned from a model list.
func (r *Renamer) HasLearned() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.learnedReverse) > 0
}

// replaceVersionDots replaces dots between digits with dashes: 4.6 -> 4-6,
// 3.5.1 -> 3-5-1. Other dots are left alone.
func replaceVersionDots(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, c := range runes {
		if c == '.' && i > 0 && isDigit(runes[i-1]) && i+1 < len(runes) && isDigit(runes[i+1]) {
			b.WriteRune('-')
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// autoRename applies the pattern-based forward rename for claude models.
// Returns false when no transformation is needed.
func autoRename(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "claude-")
	if !ok {
		return "", false
	}
	segments := strings.Split(rest, "-")
	if len(segments) == 0 {
		return "", false
	}

	if startsWithDigit(segments[0]) {
		// Version-first: version segments start with a digit, variant
		// segments don't.
		versionEnd := 0
		for versionEnd < len(segments) && startsWithDigit(segments[versionEnd]) {
			versionEnd++
		}
		if versionEnd == len(segments) {
			// Everything looks like a version, no variant to reorder.
			return "", false
		}
		versionRaw := strings.Join(segments[:versionEnd], "-")
		variant := strings.Join(segments[versionEnd:], "-")
		return "claude-" + variant + "-" + replaceVersionDots(versionRaw), true
	}

	// Variant-first: just normalize dots in the whole thing.
	normalized := replaceVersionDots(rest)
	if normalized == rest {
		return "", false
	}
	return "claude-" + normalized, true
}

func startsWithDigit(s string) bool {
	return s != "" && isDigit(rune(s[0]))
}
