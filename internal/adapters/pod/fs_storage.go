package pod

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Accepted proof-of-delivery formats, keyed by sniffed MIME type.
var allowedMIMEs = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// FSStorage keeps POD files under Dir/<tripID>/ and serves them from BaseURL.
type FSStorage struct {
	Dir     string
	BaseURL string
}

func NewFSStorage(dir, baseURL string) *FSStorage {
	return &FSStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *FSStorage) StorePOD(ctx context.Context, tripID string, data []byte) (string, error) {
	if strings.ContainsAny(tripID, `/\`) || tripID == "" || tripID == "." || tripID == ".." {
		return "", fmt.Errorf("store pod: invalid trip id %q", tripID)
	}

	mime := http.DetectContentType(data)
	ext, ok := allowedMIMEs[strings.TrimSpace(strings.Split(mime, ";")[0])]
	if !ok {
		var errs domain.ValidationErrors
		errs.Add("file", fmt.Sprintf("unsupported file type %s", mime))
		return "", errs
	}

	dir := filepath.Join(s.Dir, tripID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store pod: create %q: %w", dir, err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("store pod: write %q: %w", name, err)
	}

	return s.BaseURL + "/" + path.Join(tripID, name), nil
}
