package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alizenart/closeted/internal/core/ports"
)

func (rt *Router) listOutfits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	outfits, err := rt.services.Browser.Browse(r.Context(), ports.ClosetQuery{
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outfits)
}

func (rt *Router) getOutfit(w http.ResponseWriter, r *http.Request) {
	outfit, err := rt.services.Closet.Outfit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outfit)
}

func (rt *Router) similarToOutfit(w http.ResponseWriter, r *http.Request) {
	ranked, err := rt.services.Recommender.SimilarToOutfit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (rt *Router) listWishlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.services.Closet.Wishlist(r.Context()))
}

func (rt *Router) getWishlistItem(w http.ResponseWriter, r *http.Request) {
	item, err := rt.services.Closet.WishlistItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rt *Router) similarToWishlistItem(w http.ResponseWriter, r *http.Request) {
	ranked, err := rt.services.Recommender.SimilarToWishlistItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}
