package feed

import (
	"context"
	"net/http"

	"github.com/70ki8suda/my-new-gear/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(s Service) *Handler { return &Handler{svc: s} }

// Protected: combined feed of the current user
func (h *Handler) GetCombinedFeed(w http.ResponseWriter, r *http.Request) error {
	return h.serve(w, r, h.svc.CombinedFeed)
}

// Protected: posts from followed users only
func (h *Handler) GetUsersFeed(w http.ResponseWriter, r *http.Request) error {
	return h.serve(w, r, h.svc.UsersFeed)
}

// Protected: posts from followed tags only
func (h *Handler) GetTagsFeed(w http.ResponseWriter, r *http.Request) error {
	return h.serve(w, r, h.svc.TagsFeed)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, viewerID uint, limit, offset int) ([]FeedEntry, error)) error {
	viewerID, err := httpx.UserIDFromCtx(r)
	if err != nil {
		return err
	}
	limit := httpx.QueryInt(r, "limit", 0)
	offset := httpx.QueryInt(r, "offset", 0)
	limit, offset = h.svc.PageBounds(limit, offset)

	entries, err := fetch(r.Context(), viewerID, limit, offset)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, FeedResponse{Posts: entries, Limit: limit, Offset: offset}, http.StatusOK)
	return nil
}
