package httpadapter

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
)

// serveBlob streams a stored blob. When URLs are signed the token must have
// been issued for exactly this path.
func (rt *Router) serveBlob(w http.ResponseWriter, r *http.Request) {
	objectPath, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid blob path"})
		return
	}
	if rt.blobs.SigningEnabled() {
		if err := rt.blobs.VerifyToken(objectPath, r.URL.Query().Get("token")); err != nil {
			writeError(w, r, err)
			return
		}
	}

	body, err := rt.blobs.Open(r.Context(), objectPath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	if ct := mime.TypeByExtension(path.Ext(objectPath)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
