package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alizenart/closeted/internal/core/domain"
)

func (rt *Router) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := rt.services.Preferences.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (rt *Router) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch domain.PreferencesPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "update preferences", errors.New("invalid json")))
		return
	}
	prefs, err := rt.services.Preferences.Update(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if rt.services.Stats == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stats are not enabled"})
		return
	}
	counts, err := rt.services.Stats.Counts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
