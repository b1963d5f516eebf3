// Package itempath encodes the materialized path of a hierarchy item: the
// UUIDs of its ancestors from root to self, joined by a dot. Paths are only
// ever produced by this package, so a malformed path is an internal error,
// not user input.
package itempath

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Separator joins path segments. It sorts below hexadecimal characters, so
// ordering rows by path yields pre-order traversal (a parent always precedes
// its descendants).
const Separator = "."

// Encode joins ids into a materialized path.
func Encode(ids ...uuid.UUID) string {
	segments := make([]string, len(ids))
	for i, id := range ids {
		segments[i] = id.String()
	}
	return strings.Join(segments, Separator)
}

// Decode splits a path back into its segment ids.
func Decode(path string) ([]uuid.UUID, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	segments := strings.Split(path, Separator)
	ids := make([]uuid.UUID, len(segments))
	for i, segment := range segments {
		id, err := uuid.Parse(segment)
		if err != nil {
			return nil, fmt.Errorf("malformed path segment %q: %w", segment, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Depth returns the number of segments. Root items have depth 1.
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, Separator) + 1
}

// SelfID returns the last segment, which is the item's own id.
func SelfID(path string) (uuid.UUID, error) {
	idx := strings.LastIndex(path, Separator)
	return uuid.Parse(path[idx+1:])
}

// ParentPath returns the path without its last segment, or "" for roots.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// ParentID returns the second-to-last segment, or nil for roots.
func ParentID(path string) (*uuid.UUID, error) {
	parent := ParentPath(path)
	if parent == "" {
		return nil, nil
	}
	id, err := SelfID(parent)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Child appends an id under parentPath. An empty parentPath yields a root
// path.
func Child(parentPath string, id uuid.UUID) string {
	if parentPath == "" {
		return id.String()
	}
	return parentPath + Separator + id.String()
}

// IsAncestorOrSelf reports whether path starts with ancestorPath as a full
// segment prefix. A path is an ancestor-or-self of itself.
func IsAncestorOrSelf(ancestorPath, path string) bool {
	if ancestorPath == "" || path == "" {
		return false
	}
	if ancestorPath == path {
		return true
	}
	return strings.HasPrefix(path, ancestorPath+Separator)
}

// IsDirectChild reports whether path sits exactly one level below parentPath.
func IsDirectChild(path, parentPath string) bool {
	return IsAncestorOrSelf(parentPath, path) && Depth(path) == Depth(parentPath)+1
}

// Rebase replaces the leading oldPrefixLen segments of path with newPrefix,
// keeping the trailing segments. With an empty newPrefix the trailing
// segments become a root path. This is the move primitive: cut the old
// ancestor prefix, splice in the destination's path.
func Rebase(path string, oldPrefixLen int, newPrefix string) (string, error) {
	segments := strings.Split(path, Separator)
	if oldPrefixLen < 0 || oldPrefixLen > len(segments) {
		return "", fmt.Errorf("prefix length %d out of range for path %q", oldPrefixLen, path)
	}
	tail := strings.Join(segments[oldPrefixLen:], Separator)
	switch {
	case newPrefix == "":
		return tail, nil
	case tail == "":
		return newPrefix, nil
	default:
		return newPrefix + Separator + tail, nil
	}
}
