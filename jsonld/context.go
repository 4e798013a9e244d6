package jsonld

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactsDir is the directory marker separating a run from its artifact tree.
const ArtifactsDir = "artifacts"

// ErrUnresolvableContext is returned for context references that are neither
// URLs, inline documents, local files nor run artifact paths.
var ErrUnresolvableContext = errors.New("unresolvable json-ld context")

// Downloader materializes run artifacts locally.
type Downloader interface {
	DownloadTmpArtifacts(ctx context.Context, runID, relPath string) (string, error)
}

// ContextResolver rewrites @context references pointing into a run's
// artifact tree into local documents a JSON-LD processor can dereference.
type ContextResolver struct {
	downloader Downloader
	logger     *slog.Logger
}

// NewContextResolver creates a resolver backed by the given downloader.
func NewContextResolver(downloader Downloader, logger *slog.Logger) *ContextResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextResolver{downloader: downloader, logger: logger}
}

// Resolve resolves a context value. Lists are resolved element-wise.
func (r *ContextResolver) Resolve(ctx context.Context, c any) (any, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			res, err := r.resolveOne(ctx, e)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		return out, nil
	case []string:
		out := make([]any, 0, len(v))
		for _, e := range v {
			res, err := r.resolveOne(ctx, e)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		return out, nil
	default:
		return r.resolveOne(ctx, v)
	}
}

func (r *ContextResolver) resolveOne(ctx context.Context, c any) (any, error) {
	s, ok := c.(string)
	if !ok {
		// Inline context documents pass through.
		return c, nil
	}
	if IsAbsoluteURL(s) || isFile(s) {
		return s, nil
	}

	runID, rel, ok := SplitArtifactPath(s)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableContext, s)
	}
	if r.downloader == nil {
		return nil, fmt.Errorf("%w: no artifact downloader for %s", ErrUnresolvableContext, s)
	}
	local, err := r.downloader.DownloadTmpArtifacts(ctx, runID, rel)
	if err != nil {
		return nil, fmt.Errorf("download context %s of run %s: %w", rel, runID, err)
	}
	r.logger.Debug("Resolved artifact context", "run_id", runID, "path", rel, "local", local)
	return local, nil
}

// SplitArtifactPath splits "<...>/<run-id>/artifacts/<relative-path>" into
// the run id (the segment right before the marker) and the relative path.
func SplitArtifactPath(p string) (runID, rel string, ok bool) {
	p = filepath.ToSlash(p)
	marker := "/" + ArtifactsDir + "/"

	i := strings.Index(p, marker)
	if i < 0 {
		return "", "", false
	}
	head, tail := p[:i], p[i+len(marker):]

	segs := strings.Split(head, "/")
	runID = segs[len(segs)-1]
	if runID == "" || tail == "" {
		return "", "", false
	}
	return runID, tail, true
}

// IsAbsoluteURL reports whether s is an absolute http(s) URL.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
