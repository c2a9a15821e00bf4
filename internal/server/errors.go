package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"inkwell/internal/media"
	"inkwell/internal/store"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrResponse is the JSON body of every error reply. Err is logged, never sent.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	ErrorText string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// requestError is a malformed body or query string.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

func errorResponse(err error) *ErrResponse {
	var (
		verr *store.ValidationError
		rerr *requestError
		uerr *media.UploadError
		merr *http.MaxBytesError
	)

	resp := &ErrResponse{Err: err}
	switch {
	case errors.Is(err, store.ErrNotFound):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusNotFound, "Not found"
	case errors.Is(err, store.ErrInvalidID):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusBadRequest, "Invalid id"
	case errors.As(err, &verr):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusBadRequest, validationMessage(verr.Err)
	case errors.As(err, &merr):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusRequestEntityTooLarge, "Image too large"
	case errors.As(err, &rerr):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusBadRequest, rerr.msg
	case errors.Is(err, media.ErrUnsupportedFormat):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusUnsupportedMediaType, "Unsupported image format"
	case errors.As(err, &uerr):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusBadGateway, "Image upload failed"
	case errors.Is(err, store.ErrNotConnected):
		resp.HTTPStatusCode, resp.ErrorText = http.StatusServiceUnavailable, "Service unavailable"
	default:
		resp.HTTPStatusCode, resp.ErrorText = http.StatusInternalServerError, "Internal server error"
	}
	return resp
}

// validationMessage lists the offending fields. Rejections from the
// database validator carry no field detail worth exposing.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Article failed validation"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+describe(fe))
	}
	return strings.Join(msgs, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "invalid"
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse(err)

	logger := s.logger.With(
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", resp.HTTPStatusCode),
	)
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Error(err))
	}

	if err := render.Render(w, r, resp); err != nil {
		logger.Error("Failed to render error", zap.Error(err))
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, store.ErrNotFound)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, render.M{"error": "Method not allowed"})
}
