package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

const maxUploadBytes = 20 << 20

func (rt *Router) uploadOutfit(w http.ResponseWriter, r *http.Request) {
	ref, cleanup, err := rt.stageImage(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	req := ports.OutfitUpload{
		ImageRef: ref,
		Details:  r.FormValue("details"),
		Genre:    r.FormValue("genre"),
	}
	if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload outfit", fmt.Errorf("rating %q is not a number", raw)))
			return
		}
		req.Rating = rating
	}
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		date, err := parseFormDate(raw)
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload outfit", err))
			return
		}
		req.Date = &date
	}

	result, err := rt.services.Uploader.UploadOutfit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) uploadWishlistItem(w http.ResponseWriter, r *http.Request) {
	ref, cleanup, err := rt.stageImage(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	result, err := rt.services.Uploader.UploadWishlistItem(r.Context(), ports.WishlistUpload{
		ImageRef: ref,
		Name:     r.FormValue("name"),
		Notes:    r.FormValue("notes"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// stageImage copies the multipart "image" part into the staging directory so the
// upload pipeline can read it as a local reference. A form without a file may
// name a remote http(s) image in "imageUrl" instead; local paths and this
// service's own blob URLs are refused.
func (rt *Router) stageImage(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", noop, domain.WrapError(domain.ErrInvalidInput, "stage image", fmt.Errorf("parse multipart form: %w", err))
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		if remote := strings.TrimSpace(r.FormValue("imageUrl")); remote != "" {
			ref, err := rt.remoteImageRef(remote)
			if err != nil {
				return "", noop, domain.WrapError(domain.ErrInvalidInput, "stage image", err)
			}
			return ref, noop, nil
		}
		return "", noop, domain.WrapError(domain.ErrInvalidInput, "stage image", errors.New("multipart field 'image' is required"))
	}
	if err != nil {
		return "", noop, domain.WrapError(domain.ErrInvalidInput, "stage image", err)
	}
	defer file.Close()

	if err := os.MkdirAll(rt.cfg.StagingPath, 0o755); err != nil {
		return "", noop, fmt.Errorf("create staging dir: %w", err)
	}
	staged, err := os.CreateTemp(rt.cfg.StagingPath, "upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		return "", noop, fmt.Errorf("create staging file: %w", err)
	}
	cleanup := func() { _ = os.Remove(staged.Name()) }

	if _, err := io.Copy(staged, file); err != nil {
		_ = staged.Close()
		cleanup()
		return "", noop, fmt.Errorf("write staging file: %w", err)
	}
	if err := staged.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close staging file: %w", err)
	}
	return staged.Name(), cleanup, nil
}

func (rt *Router) remoteImageRef(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("imageUrl: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("imageUrl must be an http(s) URL, got scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("imageUrl has no host")
	}
	if rt.isOwnBlobURL(u) {
		return "", errors.New("imageUrl points at a stored blob")
	}
	return u.String(), nil
}

// isOwnBlobURL reports whether u is served by this service's /blobs route.
func (rt *Router) isOwnBlobURL(u *url.URL) bool {
	base, err := url.Parse(rt.cfg.PublicBaseURL)
	if err != nil || base.Host == "" || !strings.EqualFold(u.Host, base.Host) {
		return false
	}
	blobs := strings.TrimRight(base.Path, "/") + "/blobs/"
	return strings.HasPrefix(path.Clean("/"+u.Path)+"/", blobs)
}

func parseFormDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor RFC3339", raw)
	}
	return t, nil
}
