// Package media stores uploaded post images on the local filesystem.
package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

const postsDir = "posts"

var (
	ErrInvalidImage = xerrors.Message("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	ErrTooLarge     = xerrors.Message("The uploaded image is too large.")
	ErrBadReference = xerrors.Message("Invalid media reference")
)

var extensions = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
}

type Store struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	log       *slog.Logger
}

func NewStore(dir, urlPrefix string, maxBytes int64, log *slog.Logger) *Store {
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/") + "/",
		maxBytes:  maxBytes,
		log:       log,
	}
}

// Dir is the root directory media is served from.
func (s *Store) Dir() string {
	return s.dir
}

// Save checks that r holds a gif, jpeg or png image and writes it under a
// fresh name. It returns the reference to keep on the post.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", xerrors.New(err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", xerrors.New(ErrTooLarge)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", xerrors.New(ErrInvalidImage)
	}
	ext, ok := extensions[format]
	if !ok {
		return "", xerrors.New(ErrInvalidImage)
	}

	ref := path.Join(postsDir, uuid.NewString()+ext)
	target := filepath.Join(s.dir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", xerrors.New(err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", xerrors.New(err)
	}

	s.log.Debug("image stored", slog.String("ref", ref), slog.Int("bytes", len(data)))
	return ref, nil
}

// Delete removes a stored image. A missing file is not an error.
func (s *Store) Delete(ref string) error {
	clean := path.Clean(ref)
	if path.Dir(clean) != postsDir {
		return xerrors.New(ErrBadReference)
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return xerrors.New(err)
	}
	return nil
}

// URL returns the public address of a stored image.
func (s *Store) URL(ref string) string {
	return s.urlPrefix + ref
}
