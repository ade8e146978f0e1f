package handler

import (
	"errors"
	"net/http"
	"strconv"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/service"

	"github.com/gorilla/mux"
)

type newsfeedPage struct {
	Filter service.Filter
	Items  []domain.Item
}

type commentsPage struct {
	Item     *domain.Item
	Comments []domain.Comment
	Body     string
	Error    string
}

type NewsfeedHandler struct {
	newsfeedService *service.NewsfeedService
	renderer        *Renderer
	appURL          string
}

func NewNewsfeedHandler(newsfeedService *service.NewsfeedService, renderer *Renderer, appURL string) *NewsfeedHandler {
	return &NewsfeedHandler{
		newsfeedService: newsfeedService,
		renderer:        renderer,
		appURL:          appURL,
	}
}

// Newsfeed polls the user's sources and renders the item list.
func (h *NewsfeedHandler) Newsfeed(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)

	filter, err := service.ParseFilter(mux.Vars(r)["filter"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	items, err := h.newsfeedService.Newsfeed(r.Context(), uid, filter)
	if err != nil {
		logger.Errorf("Error loading newsfeed for user %d: %v", uid, err)
		http.Error(w, "Error getting news items", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "newsfeed", newsfeedPage{Filter: filter, Items: items})
}

func (h *NewsfeedHandler) Comments(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	itemID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	var page commentsPage
	status := http.StatusOK

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		page.Body = r.FormValue("comment")

		_, err := h.newsfeedService.AddComment(r.Context(), itemID, uid, page.Body)
		if err == nil {
			http.Redirect(w, r, commentsURL(itemID), http.StatusFound)
			return
		}
		if !errors.Is(err, domain.ErrInvalidComment) {
			h.fail(w, "Error adding comment", err)
			return
		}
		page.Error = userMessage(err)
		status = http.StatusBadRequest
	}

	item, comments, err := h.newsfeedService.ItemWithComments(r.Context(), itemID)
	if err != nil {
		h.fail(w, "Error getting comments", err)
		return
	}
	page.Item = item
	page.Comments = comments

	h.renderer.Render(w, r, status, "comments", page)
}

// LikeComment bumps the like counter and returns to the comment thread.
func (h *NewsfeedHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	comment, err := h.newsfeedService.LikeComment(r.Context(), commentID)
	if err != nil {
		h.fail(w, "Error liking comment", err)
		return
	}
	http.Redirect(w, r, commentsURL(comment.ItemID), http.StatusFound)
}

func (h *NewsfeedHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	if _, err := h.newsfeedService.ToggleFavorite(r.Context(), itemID); err != nil {
		h.fail(w, "Error updating favorite", err)
		return
	}
	http.Redirect(w, r, "/newsfeed/all/", http.StatusFound)
}

func (h *NewsfeedHandler) FavoritesRSS(w http.ResponseWriter, r *http.Request) {
	base := h.appURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	feed, err := h.newsfeedService.FavoritesFeed(r.Context(), base)
	if err != nil {
		h.fail(w, "Error building feed", err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRss(w); err != nil {
		logger.Errorf("Error writing favorites feed: %v", err)
	}
}

func (h *NewsfeedHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s: %v", msg, err)
	}
	http.Error(w, msg, status)
}

func commentsURL(itemID int) string {
	return "/newsfeed/" + strconv.Itoa(itemID) + "/comments/"
}
