package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// UploadStore writes uploaded resumes into a single directory. Stored files
// are kept after ingest so a worker can pick them up later.
type UploadStore struct {
	dir string
	log *logger.Logger
}

// NewUploadStore creates the upload directory if needed
func NewUploadStore(dir string, log *logger.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &UploadStore{dir: dir, log: log.WithComponent("storage")}, nil
}

// Dir returns the upload directory
func (s *UploadStore) Dir() string {
	return s.dir
}

// SecureFilename reduces a client-supplied name to a safe base name: path
// separators become spaces, whitespace runs become "_", anything outside
// [A-Za-z0-9_.-] is dropped and leading or trailing dots and underscores are
// trimmed. The result may be empty.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Save stores r under the sanitized form of name and returns the stored path
// and the sanitized name. Names without an accepted extension are rejected
// with domain.ErrUnsupportedFile before anything is written. An existing file
// is never overwritten; the new one gets a random suffix instead.
func (s *UploadStore) Save(name string, r io.Reader) (path, filename string, err error) {
	filename = SecureFilename(name)
	if _, ok := domain.KindFromFilename(filename); !ok {
		return "", "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, name)
	}

	f, path, err := s.create(filename)
	if err != nil {
		return "", "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write upload %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write upload %s: %w", filename, err)
	}

	s.log.Debug().Str("file", filename).Str("path", path).Msg("upload stored")
	return path, filename, nil
}

func (s *UploadStore) create(filename string) (*os.File, string, error) {
	path := filepath.Join(s.dir, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return f, path, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, "", fmt.Errorf("failed to create upload %s: %w", filename, err)
	}

	ext := filepath.Ext(filename)
	unique := strings.TrimSuffix(filename, ext) + "_" + uuid.NewString()[:8] + ext
	path = filepath.Join(s.dir, unique)
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create upload %s: %w", unique, err)
	}
	return f, path, nil
}
