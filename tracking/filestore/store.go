// Package filestore is a tracking backend keeping experiments, runs and their
// objects as JSON files on disk:
//
//	<root>/<experiment>/meta.json
//	<root>/<experiment>/<run>/meta.json
//	<root>/<experiment>/<run>/{params,metrics,tags,artifact-meta}/<uid>.json
//	<root>/<experiment>/<run>/artifacts/...
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/tracking"
)

// MetaFile holds the fields of an experiment or run.
const MetaFile = "meta.json"

// Per-run object directories.
const (
	DirParams       = "params"
	DirMetrics      = "metrics"
	DirTags         = "tags"
	DirArtifactMeta = "artifact-meta"
	DirArtifacts    = jsonld.ArtifactsDir
)

// maxParallelReads bounds concurrent object file reads per listing.
const maxParallelReads = 8

var (
	// ErrNotFound is returned for unknown experiments, runs and artifacts.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedKind is returned when logging an object the store has no
	// location for.
	ErrUnsupportedKind = errors.New("storage type not supported by file store")
)

var objectDirs = map[tracking.StorageType]string{
	tracking.StorageTypeParameter: DirParams,
	tracking.StorageTypeMetric:    DirMetrics,
	tracking.StorageTypeTag:       DirTags,
	tracking.StorageTypeArtifact:  DirArtifactMeta,
}

// Store is a file based tracking backend.
type Store struct {
	root   string
	logger *slog.Logger
	newID  func() string

	mu        sync.Mutex
	tmpDirs   map[string]string // run id -> temp dir
	downloads map[string]download
}

// download is a cached artifact copy, valid while the source is unchanged.
type download struct {
	local   string
	size    int64
	modTime time.Time
}

var _ tracking.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator sets the generator for objects logged without uid.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New opens the store rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	s := &Store{
		root:      abs,
		logger:    slog.Default(),
		newID:     uuid.NewString,
		tmpDirs:   make(map[string]string),
		downloads: make(map[string]download),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute store directory.
func (s *Store) Root() string { return s.root }

// ListExperiments implements tracking.Backend.
func (s *Store) ListExperiments(ctx context.Context) ([]tracking.Object, error) {
	ids, err := metaDirs(s.root)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	out := make([]tracking.Object, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := readFields(filepath.Join(s.root, id, MetaFile))
		if err != nil {
			return nil, err
		}
		setDefault(fields, tracking.FieldCategory, tracking.CategoryExperiment)
		out = append(out, tracking.New(tracking.StorageTypeExperiment, id, fields))
	}
	return out, nil
}

// ListRuns implements tracking.Backend.
func (s *Store) ListRuns(ctx context.Context, experimentID string) ([]tracking.Object, error) {
	expDir, err := s.child(s.root, experimentID)
	if err != nil {
		return nil, err
	}
	ids, err := metaDirs(expDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("experiment %s: %w", experimentID, ErrNotFound)
		}
		return nil, fmt.Errorf("list runs of experiment %s: %w", experimentID, err)
	}
	out := make([]tracking.Object, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := readFields(filepath.Join(expDir, id, MetaFile))
		if err != nil {
			return nil, err
		}
		setDefault(fields, tracking.FieldCategory, tracking.CategoryRun)
		fields[tracking.FieldExperimentID] = experimentID
		out = append(out, tracking.New(tracking.StorageTypeRun, id, fields))
	}
	return out, nil
}

// ListParameters implements tracking.Backend.
func (s *Store) ListParameters(ctx context.Context, runID string) ([]tracking.Object, error) {
	return s.listObjects(ctx, runID, tracking.StorageTypeParameter)
}

// ListMetrics implements tracking.Backend.
func (s *Store) ListMetrics(ctx context.Context, runID string) ([]tracking.Object, error) {
	return s.listObjects(ctx, runID, tracking.StorageTypeMetric)
}

// ListTags implements tracking.Backend.
func (s *Store) ListTags(ctx context.Context, runID string) ([]tracking.Object, error) {
	return s.listObjects(ctx, runID, tracking.StorageTypeTag)
}

// ListArtifacts implements tracking.Backend.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]tracking.Object, error) {
	return s.listObjects(ctx, runID, tracking.StorageTypeArtifact)
}

// listObjects reads every object file of one kind. Files are read
// concurrently and returned in file name order.
func (s *Store) listObjects(ctx context.Context, runID string, t tracking.StorageType) ([]tracking.Object, error) {
	runDir, err := s.RunDir(runID)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(runDir, objectDirs[t])
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s objects of run %s: %w", t, runID, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}

	objs := make([]tracking.Object, len(names))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelReads)
	for i, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fields, err := readFields(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			fields[tracking.FieldRunID] = runID
			uid, _ := fields[tracking.FieldUID].(string)
			if uid == "" {
				uid = strings.TrimSuffix(name, ".json")
			}
			objs[i] = tracking.New(t, uid, fields)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return objs, nil
}

// DownloadTmpArtifacts implements tracking.ArtifactDownloader. Artifacts
// are copied into one temporary directory per run, removed by Close. A copy
// is reused until the source artifact's size or modification time changes.
func (s *Store) DownloadTmpArtifacts(ctx context.Context, runID, relPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runDir, err := s.RunDir(runID)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(relPath)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("artifact path %q escapes the artifact directory", relPath)
	}

	src := filepath.Join(runDir, DirArtifacts, rel)
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("artifact %s of run %s: %w", relPath, runID, ErrNotFound)
		}
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	key := runID + "\x00" + rel
	s.mu.Lock()
	cached, ok := s.downloads[key]
	s.mu.Unlock()
	if ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		if _, err := os.Stat(cached.local); err == nil {
			return cached.local, nil
		}
	}

	tmp, err := s.runTmpDir(runID)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(tmp, rel)
	if err := writeAtomic(dst, in); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.downloads[key] = download{local: dst, size: info.Size(), modTime: info.ModTime()}
	s.mu.Unlock()

	s.logger.Debug("Downloaded artifact", "run_id", runID, "path", relPath, "local", dst)
	return dst, nil
}

func (s *Store) runTmpDir(runID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir, ok := s.tmpDirs[runID]; ok {
		return dir, nil
	}
	dir, err := os.MkdirTemp("", "semonto-artifacts-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	s.tmpDirs[runID] = dir
	return dir, nil
}

// Log implements tracking.Backend. Experiments and runs are written as
// meta files, per-run objects into their kind's directory.
func (s *Store) Log(ctx context.Context, obj tracking.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(obj)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(obj.ToMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s object: %w", obj.StorageType(), err)
	}
	if err := writeAtomic(path, bytes.NewReader(data)); err != nil {
		return err
	}
	s.logger.Debug("Logged object", "storage_type", obj.StorageType(), "path", path)
	return nil
}

// Close removes the temporary artifact copies.
func (s *Store) Close() error {
	s.mu.Lock()
	dirs := s.tmpDirs
	s.tmpDirs = make(map[string]string)
	s.downloads = make(map[string]download)
	s.mu.Unlock()

	var errs []error
	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunDir locates the directory of a run in any experiment.
func (s *Store) RunDir(runID string) (string, error) {
	if _, err := s.child(s.root, runID); err != nil {
		return "", err
	}
	exps, err := metaDirs(s.root)
	if err != nil {
		return "", fmt.Errorf("locate run %s: %w", runID, err)
	}
	for _, exp := range exps {
		dir := filepath.Join(s.root, exp, runID)
		if fileExists(filepath.Join(dir, MetaFile)) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("run %s: %w", runID, ErrNotFound)
}

func (s *Store) objectPath(obj tracking.Object) (string, error) {
	uid := obj.UID()
	if uid == "" {
		uid = s.newID()
	}
	switch obj.StorageType() {
	case tracking.StorageTypeExperiment:
		dir, err := s.child(s.root, uid)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, MetaFile), nil
	case tracking.StorageTypeRun:
		exp := obj.ExperimentID()
		if exp == "" {
			return "", fmt.Errorf("run %s has no experiment id", uid)
		}
		expDir, err := s.child(s.root, exp)
		if err != nil {
			return "", err
		}
		dir, err := s.child(expDir, uid)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, MetaFile), nil
	}

	sub, ok := objectDirs[obj.StorageType()]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, obj.StorageType())
	}
	runDir, err := s.RunDir(obj.RunID())
	if err != nil {
		return "", err
	}
	name := uid + ".json"
	if !filepath.IsLocal(name) || strings.ContainsRune(uid, filepath.Separator) {
		return "", fmt.Errorf("invalid object uid %q", uid)
	}
	return filepath.Join(runDir, sub, name), nil
}

// child joins a single path segment onto dir.
func (s *Store) child(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return filepath.Join(dir, name), nil
}

// metaDirs returns the non-hidden subdirectories of dir holding a meta file,
// in name order.
func metaDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if fileExists(filepath.Join(dir, e.Name(), MetaFile)) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func readFields(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func setDefault(m map[string]any, key string, v any) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeAtomic copies r to a temporary sibling of path and renames it into place.
func writeAtomic(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
