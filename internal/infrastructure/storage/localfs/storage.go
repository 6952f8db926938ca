package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alizenart/closeted/internal/core/domain"
)

const (
	blobRoute       = "/blobs/"
	defaultURLTTL   = 15 * time.Minute
	tokenQueryParam = "token"
)

type Options struct {
	// PublicBaseURL prefixes every resolved URL, e.g. http://localhost:8080.
	PublicBaseURL string
	// SigningKey enables short-lived download tokens when set.
	SigningKey []byte
	URLTTL     time.Duration
}

// Storage is a blob store over a local directory. Object paths map 1:1 onto files.
type Storage struct {
	basePath string
	baseURL  string
	key      []byte
	ttl      time.Duration
	now      func() time.Time
}

func New(basePath string, opts Options) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	ttl := opts.URLTTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &Storage{
		basePath: basePath,
		baseURL:  strings.TrimRight(opts.PublicBaseURL, "/"),
		key:      opts.SigningKey,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Put writes through a temp file and renames it into place, so readers never see partial blobs.
func (s *Storage) Put(ctx context.Context, objectPath string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.fullPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}

// ResolveURL returns a download URL for an existing blob.
func (s *Storage) ResolveURL(_ context.Context, objectPath string) (string, error) {
	full, err := s.fullPath(objectPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.WrapError(domain.ErrNotFound, "resolve url", fmt.Errorf("no blob at %s", objectPath))
		}
		return "", fmt.Errorf("stat blob: %w", err)
	}

	u := s.baseURL + blobRoute + escapePath(objectPath)
	if len(s.key) == 0 {
		return u, nil
	}
	token, err := s.sign(objectPath)
	if err != nil {
		return "", err
	}
	return u + "?" + tokenQueryParam + "=" + url.QueryEscape(token), nil
}

// ListChildPrefixes lists the immediate sub-folders of prefix, each ending in "/".
// A prefix with no folder behind it yields an empty list.
func (s *Storage) ListChildPrefixes(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix = strings.TrimSuffix(prefix, "/")
	full, err := s.fullPath(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, path.Join(prefix, entry.Name())+"/")
		}
	}
	sort.Strings(out)
	return out, nil
}

// Open streams a blob for the /blobs handler.
func (s *Storage) Open(_ context.Context, objectPath string) (io.ReadCloser, error) {
	full, err := s.fullPath(objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open blob", fmt.Errorf("no blob at %s", objectPath))
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// ReadURL reads a URL produced by ResolveURL straight from disk. ok is false
// for URLs this store did not issue. With signing on, the URL must carry a
// valid token for its own path, as it would at the /blobs route.
func (s *Storage) ReadURL(rawURL string) ([]byte, bool, error) {
	objectPath, ok := s.objectPathOf(rawURL)
	if !ok {
		return nil, false, nil
	}
	if s.SigningEnabled() {
		if err := s.VerifyToken(objectPath, tokenOf(rawURL)); err != nil {
			return nil, true, err
		}
	}
	full, err := s.fullPath(objectPath)
	if err != nil {
		return nil, true, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, true, domain.WrapError(domain.ErrNotFound, "read blob", fmt.Errorf("no blob at %s", objectPath))
	}
	if err != nil {
		return nil, true, fmt.Errorf("read blob: %w", err)
	}
	return data, true, nil
}

// SigningEnabled reports whether download URLs carry tokens.
func (s *Storage) SigningEnabled() bool {
	return len(s.key) > 0
}

// VerifyToken checks a download token against the object path it was issued for.
func (s *Storage) VerifyToken(objectPath, token string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.WrapError(domain.ErrUnauthorized, "verify blob token", err)
	}
	if claims.Subject != objectPath {
		return domain.WrapError(domain.ErrUnauthorized, "verify blob token", errors.New("token issued for another blob"))
	}
	return nil
}

func (s *Storage) sign(objectPath string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   objectPath,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign blob url: %w", err)
	}
	return token, nil
}

func (s *Storage) objectPathOf(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL+blobRoute) {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	escaped := strings.TrimPrefix(u.EscapedPath(), strings.TrimSuffix(baseURLPath(s.baseURL), "/")+blobRoute)
	objectPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return objectPath, true
}

func tokenOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(tokenQueryParam)
}

// fullPath maps an object path onto the base directory and refuses to escape it.
func (s *Storage) fullPath(objectPath string) (string, error) {
	for _, segment := range strings.Split(objectPath, "/") {
		if segment == ".." {
			return "", domain.WrapError(domain.ErrInvalidInput, "blob path", fmt.Errorf("path %q escapes storage", objectPath))
		}
	}
	return filepath.Join(s.basePath, filepath.FromSlash(path.Clean("/"+objectPath))), nil
}

func escapePath(objectPath string) string {
	parts := strings.Split(objectPath, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func baseURLPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.EscapedPath()
}
