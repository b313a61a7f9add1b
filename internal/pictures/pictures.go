// Package pictures stores uploaded images on the filesystem under logical
// categories (user_pics, course_icons, lesson_thumbnails, uploads). Stored
// files get random names; each category has a well-known default sentinel
// that is never written or deleted.
package pictures

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"codecourse/internal/models"
)

// Category names used by the application
const (
	CategoryAvatars    = "user_pics"
	CategoryIcons      = "course_icons"
	CategoryThumbnails = "lesson_thumbnails"
	CategoryUploads    = "uploads"
)

// defaults maps each category to its sentinel "no asset" value. Categories
// without a sentinel (generic uploads) have no entry.
var defaults = map[string]string{
	CategoryAvatars:    models.DefaultAvatar,
	CategoryIcons:      models.DefaultCourseIcon,
	CategoryThumbnails: models.DefaultThumbnail,
}

// Store saves images under a root directory
type Store struct {
	root string
}

// NewStore creates a picture store rooted at the static files path
func NewStore(root string) *Store {
	return &Store{root: root}
}

// DefaultFor returns the sentinel reference for a category, or empty if the
// category has none
func DefaultFor(category string) string {
	return defaults[category]
}

// IsDefault reports whether name is the category's sentinel (or absent)
func IsDefault(category, name string) bool {
	return name == "" || name == defaults[category]
}

// Save stores an uploaded image under the category directory and returns the
// generated reference name. The name derives from a cryptographically random
// value; only the extension of the original filename is preserved. When
// maxW/maxH are positive the image is downscaled to fit within those bounds
// preserving aspect ratio; it is never upscaled.
func (s *Store) Save(r io.Reader, filename, category string, maxW, maxH int) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	if maxW > 0 && maxH > 0 {
		if resized, err := resize(raw, ext, maxW, maxH); err == nil {
			raw = resized
		} else {
			return "", fmt.Errorf("failed to resize image: %w", err)
		}
	}

	name, err := randomName(ext)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return name, nil
}

// Delete removes a stored image. It is a no-op for empty references and for
// the category's default sentinel. A missing file is not an error, and any
// removal failure is logged and swallowed so cleanup never blocks the
// caller's primary operation.
func (s *Store) Delete(name, category string) {
	if IsDefault(category, name) {
		return
	}

	path := filepath.Join(s.root, category, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to delete picture %s/%s: %v", category, name, err)
	}
}

// URLPath returns the serving path for a stored reference, following the
// {category}/{reference} convention under /static
func URLPath(name, category string) string {
	return "/static/" + category + "/" + name
}

// randomName generates a collision-resistant file name keeping only the
// original extension
func randomName(ext string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate picture name: %w", err)
	}
	return hex.EncodeToString(b) + ext, nil
}

// resize decodes, downscales to fit within maxW x maxH, and re-encodes.
// Images already within bounds pass through untouched. WebP has no encoder
// in the Go ecosystem, so webp uploads are stored as-is.
func resize(raw []byte, ext string, maxW, maxH int) ([]byte, error) {
	if ext == ".webp" {
		return raw, nil
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return raw, nil
	}

	// Fit within bounds, preserving aspect ratio
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	case ".png":
		err = png.Encode(&buf, dst)
	case ".gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		return nil, fmt.Errorf("cannot re-encode %s image", ext)
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
