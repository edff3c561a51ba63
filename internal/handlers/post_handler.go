package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"postboard/internal/models"
	"postboard/internal/repository"
)

const (
	postFileField       = "post"
	genericContentType  = "application/octet-stream"
	multipartFormMemory = 8 << 20
)

type PostHandler struct {
	posts          repository.PostRepository
	logger         *slog.Logger
	maxUploadBytes int64
	v              *validator.Validate
}

func NewPostHandler(posts repository.PostRepository, logger *slog.Logger, maxUploadBytes int64) *PostHandler {
	return &PostHandler{
		posts:          posts,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		v:              validator.New(),
	}
}

// UploadPost godoc
// @Tags Posts
// @Summary Create a post with an image
// @Accept multipart/form-data
// @Produce json
// @Param pName formData string true "Name"
// @Param pDescription formData string true "Description"
// @Param post formData file true "Image"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /uploadPost [post]
func (h *PostHandler) UploadPost(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	img, err := h.readImage(r)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", "Image file \"post\" is required")
			return
		}
		h.logger.Error("uploadPost: read image failed", "error", err)
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Could not read image")
		return
	}

	post := &models.Post{
		Name:        strings.TrimSpace(r.FormValue("pName")),
		Description: strings.TrimSpace(r.FormValue("pDescription")),
		Image:       *img,
	}
	if err := h.v.Struct(post); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.posts.Create(r.Context(), post); err != nil {
		if errors.Is(err, repository.ErrPostExists) {
			writeJSONErrorResponse(w, http.StatusConflict, "post_exists", "Post already exists")
			return
		}
		h.logger.Error("uploadPost: create failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to upload Post.")
		return
	}

	h.logger.Info("post uploaded", "post_id", post.ID, "content_type", post.Image.ContentType, "bytes", len(post.Image.Data))
	writeJSONOK(w, http.StatusCreated, "Post uploaded successfully.")
}

// GetPosts godoc
// @Tags Posts
// @Summary List all posts
// @Produce json
// @Success 200 {array} models.PostResponse
// @Failure 500 {object} map[string]interface{}
// @Router /getPost [get]
func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		h.logger.Error("getPost: list failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_failed", "Failed to retrieve Post.")
		return
	}

	out := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, models.NewPostResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// DeletePost godoc
// @Tags Posts
// @Summary Delete a post
// @Accept json
// @Produce json
// @Param body body models.DeletePostRequest true "Post id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /deletePost [post]
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	var req models.DeletePostRequest
	err := decodeFormOrJSON(w, r, &req, func(v url.Values) { req.PostID = v.Get("postId") }, formBodyLimit)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.posts.Delete(r.Context(), req.PostID); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotFound):
			// Deleting a missing post is reported as success.
		case errors.Is(err, repository.ErrInvalidID):
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid postId.")
			return
		default:
			h.logger.Error("deletePost: delete failed", "post_id", req.PostID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"status": "error",
				"error":  "delete_failed",
				"data":   "Failed to delete Post",
			})
			return
		}
	}

	writeJSONOK(w, http.StatusOK, "Post deleted")
}

// EditPost godoc
// @Tags Posts
// @Summary Update the supplied fields of a post
// @Accept multipart/form-data
// @Produce json
// @Param postId formData string true "Post id"
// @Param pName formData string false "Name"
// @Param pDescription formData string false "Description"
// @Param post formData file false "Image"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /editPost [post]
func (h *PostHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}

	postID := strings.TrimSpace(r.FormValue("postId"))
	if postID == "" {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_post_id", "Invalid postId.")
		return
	}

	var req models.UpdatePostRequest
	if name := strings.TrimSpace(r.FormValue("pName")); name != "" {
		req.Name = &name
	}
	if desc := strings.TrimSpace(r.FormValue("pDescription")); desc != "" {
		req.Description = &desc
	}
	img, err := h.readImage(r)
	switch {
	case err == nil:
		req.Image = img
	case errors.Is(err, http.ErrMissingFile):
	default:
		h.logger.Error("editPost: read image failed", "error", err)
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Could not read image")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.posts.Update(r.Context(), postID, &req); err != nil {
		switch {
		case errors.Is(err, repository.ErrPostNotFound):
			// Same policy as delete.
		case errors.Is(err, repository.ErrInvalidID):
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid postId.")
			return
		case errors.Is(err, repository.ErrPostExists):
			writeJSONErrorResponse(w, http.StatusConflict, "post_exists", "Post already exists")
			return
		default:
			h.logger.Error("editPost: update failed", "post_id", postID, "error", err)
			writeJSONErrorResponse(w, http.StatusInternalServerError, "edit_failed", "Failed to update Post")
			return
		}
	}

	writeJSONOK(w, http.StatusOK, "Post updated")
}

func (h *PostHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > h.maxUploadBytes {
		writeJSONErrorResponse(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the size limit")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONErrorResponse(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the size limit")
			return false
		}
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form")
		return false
	}
	return true
}

// readImage returns http.ErrMissingFile when no file was sent.
func (h *PostHandler) readImage(r *http.Request) (*models.Image, error) {
	file, header, err := r.FormFile(postFileField)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &models.Image{Data: data, ContentType: contentTypeOf(header, data)}, nil
}

// contentTypeOf trusts the part header unless it is missing or generic, in
// which case the bytes are sniffed. Parameters are dropped so the value can
// be embedded in a data URI.
func contentTypeOf(header *multipart.FileHeader, data []byte) string {
	ct := mediaType(header.Header.Get("Content-Type"))
	if ct != "" && ct != genericContentType {
		return ct
	}
	return mediaType(mimetype.Detect(data).String())
}

func mediaType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		if i := strings.IndexByte(v, ';'); i >= 0 {
			return strings.ToLower(strings.TrimSpace(v[:i]))
		}
		return strings.ToLower(v)
	}
	return mt
}
