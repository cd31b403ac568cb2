// Package assets resolves the opaque icon and background references carried
// by nodes into decoded images.
package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Resolver maps an asset reference to an image. Resolve returns nil when the
// reference cannot be resolved; the renderer then falls back to plain shapes.
type Resolver interface {
	Resolve(ref string) image.Image
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref string) image.Image

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref string) image.Image {
	return f(ref)
}

// Map is a fixed in-memory resolver.
type Map map[string]image.Image

// Resolve returns m[ref].
func (m Map) Resolve(ref string) image.Image {
	return m[ref]
}

// FileResolver loads references as image files relative to a root directory
// and caches the decoded result, including failures, by reference.
type FileResolver struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewFileResolver creates a resolver rooted at dir. Absolute references
// ignore the root.
func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{
		root:   dir,
		logger: slog.Default(),
		cache:  make(map[string]image.Image),
	}
}

// SetLogger replaces the logger used for decode failures.
func (r *FileResolver) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Resolve returns the decoded image for ref, or nil.
func (r *FileResolver) Resolve(ref string) image.Image {
	if ref == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if img, ok := r.cache[ref]; ok {
		return img
	}
	img, err := Load(r.path(ref))
	if err != nil {
		r.logger.Warn("asset not resolved", "ref", ref, "err", err)
	}
	r.cache[ref] = img
	return img
}

// Forget drops every cached entry so files are read again on next use.
func (r *FileResolver) Forget() {
	r.mu.Lock()
	r.cache = make(map[string]image.Image)
	r.mu.Unlock()
}

// Cached returns the number of cached references.
func (r *FileResolver) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *FileResolver) path(ref string) string {
	if filepath.IsAbs(ref) || r.root == "" {
		return ref
	}
	return filepath.Join(r.root, ref)
}

// Load decodes an image file in any registered format.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
