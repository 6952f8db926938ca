package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

// Source reads the photo the user picked: a local path, a file:// URL or an http(s) URL.
type Source struct {
	fetcher ports.Fetcher
}

func New(fetcher ports.Fetcher) *Source {
	return &Source{fetcher: fetcher}
}

func (s *Source) ReadImage(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read image", errors.New("image reference is empty"))
	}

	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			if s.fetcher == nil {
				return nil, domain.WrapError(domain.ErrInvalidInput, "read image", errors.New("remote images are not supported"))
			}
			data, err := s.fetcher.Fetch(ctx, ref)
			if domain.IsKind(err, domain.ErrNotFound) {
				return nil, domain.WrapError(domain.ErrInvalidInput, "read image", err)
			}
			return data, err
		case "file":
			ref = u.Path
		}
	}

	data, err := os.ReadFile(ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read image", fmt.Errorf("no image at %s", ref))
	}
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	return data, nil
}
