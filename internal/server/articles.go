package server

import (
	"context"
	"net/http"

	"inkwell/internal/media"
	"inkwell/internal/store"
	"inkwell/internal/worker"

	"github.com/go-chi/render"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, render.M{"message": "API Listening"})
}

// handleCreate uploads the optional image, then persists the article. If
// the article cannot be saved the image is removed again.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, img, err := s.decodeCreate(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer img.Close()

	article := req.article()
	if err := article.Validate(); err != nil {
		s.renderError(w, r, &store.ValidationError{Err: err})
		return
	}

	var asset *media.Asset
	if img != nil {
		uploaded, err := s.media.Upload(r.Context(), media.File{
			Name:   img.header.Filename,
			Size:   img.header.Size,
			Reader: img.file,
		})
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		asset = &uploaded
		article.ImageURL = &uploaded.URL
	}

	if err := s.store.Create(r.Context(), &article); err != nil {
		if asset != nil {
			s.discardAsset(r.Context(), *asset)
		}
		s.renderError(w, r, err)
		return
	}

	s.logger.Info("Article created",
		zap.String("id", article.ID.Hex()),
		zap.String("category", string(article.Category)),
		zap.Bool("image", asset != nil))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, article)
}

// discardAsset deletes an image whose article was never stored. A failed
// delete is handed to the cleanup queue when one is configured.
func (s *Server) discardAsset(ctx context.Context, asset media.Asset) {
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(zap.String("asset_id", asset.ID))

	err := s.media.Delete(ctx, asset.ID)
	if err == nil {
		logger.Info("Removed image of unsaved article")
		return
	}
	if s.cleanup == nil {
		logger.Error("Failed to remove orphaned image", zap.Error(err))
		return
	}

	if qerr := s.cleanup.Push(ctx, worker.Job{AssetID: asset.ID}); qerr != nil {
		logger.Error("Failed to queue orphaned image", zap.Error(err), zap.NamedError("queue_error", qerr))
		return
	}
	logger.Warn("Queued orphaned image for cleanup", zap.Error(err))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := s.decodeListQuery(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	articles, err := s.store.List(r.Context(), q)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, articles)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	article, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, article)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	article, err := s.store.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, article)
}

// handleDelete answers 204 whether or not the article existed.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.renderError(w, r, err)
		return
	}
	render.NoContent(w, r)
}
