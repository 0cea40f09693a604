// Package featureflags evaluates runtime switches configured through FEATURE_FLAGS.
package featureflags

import (
	"strings"
)

// PublicCaptions lets anonymous callers generate and regenerate captions for any post.
const PublicCaptions = "public_captions"

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "public_captions=on"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// On reports whether a flag is switched on. Unknown flags and unrecognised values are off.
func (m *Manager) On(name string) bool {
	if m == nil {
		return false
	}
	switch m.flags[normalize(name)] {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
