package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"inkwell/internal/model"
	"inkwell/internal/store"

	"github.com/gorilla/schema"
)

const (
	multipartMemory = 8 << 20
	maxPatchBytes   = 1 << 20
)

var schemaDecoder = schema.NewDecoder()

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// createRequest is the body of POST /api/articles. Published holds the raw
// text; only "true" publishes.
type createRequest struct {
	Title     string         `schema:"title" json:"title"`
	Content   string         `schema:"content" json:"content"`
	Category  model.Category `schema:"category" json:"category"`
	Published string         `schema:"published" json:"-"`
}

func (c *createRequest) article() model.Article {
	a := model.NewArticle(c.Title, c.Content, c.Category)
	a.Published = c.Published == "true"
	return a
}

// upload is the optional image part of a create request.
type upload struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (u *upload) Close() error {
	if u == nil {
		return nil
	}
	return u.file.Close()
}

// decodeCreate accepts multipart and urlencoded forms, and JSON. Only a
// multipart form can carry an image.
func (s *Server) decodeCreate(w http.ResponseWriter, r *http.Request) (*createRequest, *upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	var req createRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body struct {
			createRequest
			Published json.RawMessage `json:"published"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, nil, badRequest("Invalid JSON body", err)
		}
		req = body.createRequest
		req.Published = strings.Trim(string(body.Published), `"`)
		return &req, nil, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, nil, badRequest("Invalid form", err)
		}
		if err := schemaDecoder.Decode(&req, r.MultipartForm.Value); err != nil {
			return nil, nil, badRequest("Invalid form", err)
		}

		file, header, err := r.FormFile("image")
		if errors.Is(err, http.ErrMissingFile) {
			return &req, nil, nil
		} else if err != nil {
			return nil, nil, badRequest("Invalid image", err)
		}
		return &req, &upload{file: file, header: header}, nil

	default:
		if err := r.ParseForm(); err != nil {
			return nil, nil, badRequest("Invalid form", err)
		}
		if err := schemaDecoder.Decode(&req, r.PostForm); err != nil {
			return nil, nil, badRequest("Invalid form", err)
		}
		return &req, nil, nil
	}
}

// decodePatch reads the JSON body of PUT /api/articles/{id}. Fields outside
// the patch allow-list are dropped; an empty body is an empty patch.
func decodePatch(w http.ResponseWriter, r *http.Request) (model.Patch, error) {
	var patch model.Patch
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBytes)).Decode(&patch)
	if err != nil && !errors.Is(err, io.EOF) {
		return patch, badRequest("Invalid JSON body", err)
	}
	return patch, nil
}

func (s *Server) decodeListQuery(r *http.Request) (store.ListQuery, error) {
	var q store.ListQuery
	if err := schemaDecoder.Decode(&q, r.URL.Query()); err != nil {
		return q, badRequest("Invalid query", err)
	}
	q.Normalize(s.defaultPerPage, s.maxPerPage)
	return q, nil
}
