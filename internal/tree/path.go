package tree

import (
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// Separator joins path segments inside a container.
const Separator = "/"

// CleanPath normalizes a container path. Backslashes become slashes and
// surrounding slashes are dropped. Empty, "." and ".." segments are rejected.
// The empty string (the root) is returned unchanged.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", Separator)
	p = strings.Trim(p, Separator)
	if p == "" {
		return "", nil
	}
	for _, seg := range strings.Split(p, Separator) {
		switch seg {
		case "", ".", "..":
			return "", fmt.Errorf("%w: %q", kerrors.ErrInvalidPath, p)
		}
	}
	return p, nil
}

// Join joins non-empty segments with the container separator.
func Join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, Separator); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// Base returns the last segment of a container path.
func Base(p string) string {
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Split separates a container path into its parent directory and last segment.
func Split(p string) (dir, name string) {
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[:i], p[i+1:]
	}
	return "", p
}

// HasPrefix reports whether p equals dir or lies underneath it. The root
// directory "" contains every path.
func HasPrefix(p, dir string) bool {
	if dir == "" || p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+Separator)
}
