package localfs

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
)

func TestPutResolveAndReadURL(t *testing.T) {
	s, err := New(t.TempDir(), Options{PublicBaseURL: "http://closet.local/"})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "images/u1/r1/image.jpg", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := s.ResolveURL(ctx, "images/u1/r1/image.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u != "http://closet.local/blobs/images/u1/r1/image.jpg" {
		t.Fatalf("unexpected url: %s", u)
	}

	data, ok, err := s.ReadURL(u)
	if err != nil || !ok || string(data) != "jpeg" {
		t.Fatalf("read url: data=%q ok=%v err=%v", data, ok, err)
	}
	if _, ok, _ := s.ReadURL("https://elsewhere.example/x.jpg"); ok {
		t.Fatalf("foreign url must not be served from disk")
	}
}

func TestPutOverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir, Options{})
	ctx := context.Background()
	_ = s.Put(ctx, "users/u1/preferences.json", []byte(`{"a":1}`), "application/json")
	if err := s.Put(ctx, "users/u1/preferences.json", []byte(`{"a":2}`), "application/json"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "users", "u1"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "preferences.json" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
	rc, err := s.Open(ctx, "users/u1/preferences.json")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"a":2}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestResolveMissingBlobIsNotFound(t *testing.T) {
	s, _ := New(t.TempDir(), Options{})
	if _, err := s.ResolveURL(context.Background(), "images/u1/none/image.jpg"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListChildPrefixes(t *testing.T) {
	s, _ := New(t.TempDir(), Options{})
	ctx := context.Background()
	_ = s.Put(ctx, "images/u1/b/image.jpg", []byte("x"), "")
	_ = s.Put(ctx, "images/u1/a/image.jpg", []byte("x"), "")
	_ = s.Put(ctx, "images/u1/stray.txt", []byte("x"), "")

	got, err := s.ListChildPrefixes(ctx, "images/u1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(got, ",") != "images/u1/a/,images/u1/b/" {
		t.Fatalf("unexpected children: %v", got)
	}

	empty, err := s.ListChildPrefixes(ctx, "images/nobody/")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty listing, got %v (%v)", empty, err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	s, _ := New(t.TempDir(), Options{})
	err := s.Put(context.Background(), "images/../../etc/passwd", []byte("x"), "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignedURLs(t *testing.T) {
	s, _ := New(t.TempDir(), Options{PublicBaseURL: "http://closet.local", SigningKey: []byte("secret"), URLTTL: time.Minute})
	ctx := context.Background()
	_ = s.Put(ctx, "images/u1/r1/image.jpg", []byte("jpeg"), "")

	raw, err := s.ResolveURL(ctx, "images/u1/r1/image.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("expected token in %s", raw)
	}
	if err := s.VerifyToken("images/u1/r1/image.jpg", token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := s.VerifyToken("images/u2/r1/image.jpg", token); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other blob, got %v", err)
	}

	data, ok, err := s.ReadURL(raw)
	if err != nil || !ok || string(data) != "jpeg" {
		t.Fatalf("read signed url: data=%q ok=%v err=%v", data, ok, err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := s.VerifyToken("images/u1/r1/image.jpg", token); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, ok, err := s.ReadURL(raw); !ok || !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired url to be refused, ok=%v err=%v", ok, err)
	}
}

func TestReadURLRequiresTokenWhenSigning(t *testing.T) {
	s, _ := New(t.TempDir(), Options{PublicBaseURL: "http://closet.local", SigningKey: []byte("secret")})
	ctx := context.Background()
	_ = s.Put(ctx, "users/bob/preferences.json", []byte(`{"aesthetics":["private"]}`), "")
	_ = s.Put(ctx, "images/alice/r1/image.jpg", []byte("jpeg"), "")

	data, ok, err := s.ReadURL("http://closet.local/blobs/users/bob/preferences.json")
	if !ok || !domain.IsKind(err, domain.ErrUnauthorized) || data != nil {
		t.Fatalf("expected unsigned url to be refused, data=%q ok=%v err=%v", data, ok, err)
	}

	aliceURL, err := s.ResolveURL(ctx, "images/alice/r1/image.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	token := tokenOf(aliceURL)
	borrowed := "http://closet.local/blobs/users/bob/preferences.json?token=" + url.QueryEscape(token)
	if _, _, err := s.ReadURL(borrowed); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected token for another blob to be refused, got %v", err)
	}
}
