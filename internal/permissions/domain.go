package permissions

import (
	"strings"

	"github.com/academe-hq/academe/internal/shared"
)

// Wildcard is the segment that matches any resource or action.
const Wildcard = "*"

// Key is the parsed form of a "resource:action" permission key.
type Key struct {
	Resource string
	Action   string
}

// ParseKey parses raw into a Key. Keys must contain exactly one colon and
// two non-empty segments; "*" is allowed in either position.
func ParseKey(raw string) (Key, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Key{}, shared.Validation("malformed permission key: %q", raw)
	}
	return Key{Resource: parts[0], Action: parts[1]}, nil
}

func (k Key) String() string {
	return k.Resource + ":" + k.Action
}

// IsWildcard reports whether the key matches everything.
func (k Key) IsWildcard() bool {
	return k.Resource == Wildcard && k.Action == Wildcard
}

// HasWildcard reports whether either segment is a wildcard.
func (k Key) HasWildcard() bool {
	return k.Resource == Wildcard || k.Action == Wildcard
}

// Matches reports whether a granted key satisfies a required key. Wildcards
// are only meaningful on the granted side.
func (k Key) Matches(required Key) bool {
	if k.IsWildcard() {
		return true
	}
	if k.Resource != required.Resource {
		return false
	}
	return k.Action == Wildcard || k.Action == required.Action
}

// Permission is a registry entry for one grantable capability.
type Permission struct {
	Key         string `json:"key"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
