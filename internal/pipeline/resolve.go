package pipeline

import (
	"context"
	"fmt"
	"strings"

	"quark/internal/drive"
	"quark/internal/services"
)

// PathNotFoundError reports the first path segment that could not be located.
type PathNotFoundError struct {
	Segment string
	Path    string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("could not find %q in path %q", e.Segment, e.Path)
}

func (e *PathNotFoundError) Unwrap() error { return services.ErrNotFound }

// ResolvePath walks a slash-separated path from the drive root and returns
// the node id of the final component. The root path resolves immediately
// without any remote calls. Matching is exact and case-sensitive; when
// siblings share a name the first entry in listing order wins. Each call
// re-lists, nothing is cached.
func ResolvePath(ctx context.Context, lister Lister, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "/" {
		return drive.RootID, nil
	}

	currentID := drive.RootID
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" {
			continue
		}
		children, err := lister.List(ctx, currentID)
		if err != nil {
			return "", fmt.Errorf("list %q while resolving %q: %w", segment, path, err)
		}
		found := false
		for _, child := range children {
			if child.Name == segment {
				currentID = child.ID
				found = true
				break
			}
		}
		if !found {
			return "", &PathNotFoundError{Segment: segment, Path: path}
		}
	}
	return currentID, nil
}
