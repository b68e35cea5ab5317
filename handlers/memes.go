package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/export"
	"github.com/ByLCY/memecanvas/feed"
)

// PostRequest carries the exported meme as a PNG data URL.
type PostRequest struct {
	Image string `json:"image"`
}

// HandleListMemes returns the feed, sorted by ?sort=newest|upvotes.
func HandleListMemes(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memes, err := svc.Feed(r.Context(), feed.ParseSort(r.URL.Query().Get("sort")))
		if err != nil {
			logrus.WithError(err).Error("Failed to list memes")
			renderError(w, r, http.StatusInternalServerError, "Failed to load memes")
			return
		}
		render.JSON(w, r, memes)
	}
}

// HandlePostMeme stores an exported meme for the current user.
func HandlePostMeme(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserFromContext(r.Context())

		var body PostRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		img, err := export.DecodeDataURL(body.Image)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		meme, err := svc.PostImage(r.Context(), userID, img)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "userID": userID}).Error("Failed to post meme")
			renderError(w, r, statusFor(err), "Failed to post meme. Please try again.")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, meme)
	}
}

// HandleUpvote upvotes {id} for the current user.
func HandleUpvote(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserFromContext(r.Context())
		memeID := chi.URLParam(r, "id")

		meme, err := svc.Upvote(r.Context(), memeID, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "userID": userID, "memeID": memeID}).Warn("Upvote rejected")
			renderError(w, r, statusFor(err), err.Error())
			return
		}
		render.JSON(w, r, meme)
	}
}

// HandleUpvoteStatus reports whether the current user already upvoted {id}.
func HandleUpvoteStatus(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserFromContext(r.Context())
		upvoted, err := svc.HasUpvoted(r.Context(), chi.URLParam(r, "id"), userID)
		if err != nil {
			renderError(w, r, http.StatusInternalServerError, "Failed to load upvote status")
			return
		}
		render.JSON(w, r, map[string]bool{"upvoted": upvoted})
	}
}

func statusForFeed(err error) int {
	switch {
	case errors.Is(err, feed.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, feed.ErrOwnMeme), errors.Is(err, feed.ErrSeedReadOnly):
		return http.StatusForbidden
	case errors.Is(err, feed.ErrAlreadyUpvoted):
		return http.StatusConflict
	case errors.Is(err, feed.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
