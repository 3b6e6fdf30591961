package memo

import (
	"fmt"
	"sort"
	"strings"
)

// Key builds a cache key from a prefix and positional arguments. Call sites
// own their key shape; there is no reflective encoding of arbitrary values.
func Key(prefix string, args ...interface{}) string {
	if len(args) == 0 {
		return prefix
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, prefix)
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return strings.Join(parts, ":")
}

// KeyMap builds a cache key from a prefix and named arguments. Names are
// sorted so semantically equal argument sets produce the same key regardless
// of how the call site ordered them.
func KeyMap(prefix string, named map[string]interface{}) string {
	if len(named) == 0 {
		return prefix
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	parts = append(parts, prefix)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, named[name]))
	}
	return strings.Join(parts, ":")
}
