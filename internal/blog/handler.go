// Package blog manages the public announcements feed and its media uploads.
package blog

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/response"
	"github.com/summitdesk/backend/pkg/storage"
)

// Handler serves the public posts feed and the admin post/upload endpoints.
type Handler struct {
	store  store.Posts
	s3     *storage.S3
	clock  clock.Clock
	logger *zap.Logger
}

// NewHandler wires the blog handler. s3 may be nil when media storage is not
// configured; uploads then report an error and everything else still works.
func NewHandler(st store.Posts, s3 *storage.S3, clk clock.Clock, logger *zap.Logger) *Handler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: st, s3: s3, clock: clk, logger: logger}
}

// ListPublished handles GET /posts.
func (h *Handler) ListPublished(c *gin.Context) {
	posts, err := h.store.Posts(c.Request.Context(), false)
	if err != nil {
		h.logger.Error("list posts failed", zap.Error(err))
		response.Internal(c, "could not load posts")
		return
	}
	response.OK(c, posts)
}

// GetPublished handles GET /posts/:id. Drafts read as not found here; the
// admin routes see them.
func (h *Handler) GetPublished(c *gin.Context) {
	p, ok := h.fetch(c)
	if !ok {
		return
	}
	if !p.Published {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, p)
}

// ListAll handles GET /admin/posts, drafts included.
func (h *Handler) ListAll(c *gin.Context) {
	posts, err := h.store.Posts(c.Request.Context(), true)
	if err != nil {
		h.logger.Error("list posts failed", zap.Error(err))
		response.Internal(c, "could not load posts")
		return
	}
	response.OK(c, posts)
}

// GetByID handles GET /admin/posts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	p, ok := h.fetch(c)
	if !ok {
		return
	}
	response.OK(c, p)
}

// CreatePostRequest is the body for POST /admin/posts.
type CreatePostRequest struct {
	Title         string `json:"title" binding:"required"`
	Body          string `json:"body" binding:"required"`
	CoverURL      string `json:"cover_url"`
	AttachmentURL string `json:"attachment_url"`
	Published     bool   `json:"published"`
}

// Create handles POST /admin/posts.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	now := h.clock.Now()
	p := &models.Post{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(req.Title),
		Body:          req.Body,
		CoverURL:      strings.TrimSpace(req.CoverURL),
		AttachmentURL: strings.TrimSpace(req.AttachmentURL),
		Published:     req.Published,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.store.AppendPost(c.Request.Context(), p); err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		response.Internal(c, "could not create post")
		return
	}
	response.Created(c, p)
}

// Update handles PATCH /admin/posts/:id. Absent fields keep their value.
func (h *Handler) Update(c *gin.Context) {
	p, ok := h.fetch(c)
	if !ok {
		return
	}

	var req struct {
		Title         *string `json:"title"`
		Body          *string `json:"body"`
		CoverURL      *string `json:"cover_url"`
		AttachmentURL *string `json:"attachment_url"`
		Published     *bool   `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		p.Body = *req.Body
	}
	if req.CoverURL != nil {
		p.CoverURL = strings.TrimSpace(*req.CoverURL)
	}
	if req.AttachmentURL != nil {
		p.AttachmentURL = strings.TrimSpace(*req.AttachmentURL)
	}
	if req.Published != nil {
		p.Published = *req.Published
	}
	if p.Title == "" {
		response.BadRequest(c, "title cannot be empty")
		return
	}

	p.UpdatedAt = h.clock.Now()
	if err := h.store.UpdatePost(c.Request.Context(), p); err != nil {
		h.logger.Error("update post failed", zap.String("post_id", p.ID.String()), zap.Error(err))
		response.Internal(c, "could not update post")
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /admin/posts/:id. Media objects the post owned are
// cleaned up best-effort after the row is gone.
func (h *Handler) Delete(c *gin.Context) {
	p, ok := h.fetch(c)
	if !ok {
		return
	}
	if err := h.store.DeletePost(c.Request.Context(), p.ID); err != nil {
		h.logger.Error("delete post failed", zap.String("post_id", p.ID.String()), zap.Error(err))
		response.Internal(c, "could not delete post")
		return
	}

	for _, u := range []string{p.CoverURL, p.AttachmentURL} {
		key := h.uploadKeyFromURL(u)
		if key == "" {
			continue
		}
		if err := h.s3.DeleteUpload(c.Request.Context(), key); err != nil {
			h.logger.Warn("upload cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
	response.OK(c, gin.H{"deleted": true})
}

// Upload handles POST /admin/uploads (multipart, field "file"). Covers and
// PDF attachments land in the public uploads prefix; PDFs also get a
// time-limited download link for verification.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	headerType := strings.ToLower(file.Header.Get("Content-Type"))
	if !storage.ValidateUploadType(headerType, file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp, gif images and pdf allowed")
		return
	}

	contentType := storage.ContentTypeForFilename(file.Filename)
	if headerType != "" {
		if _, ok := storage.AllowedUploadTypes[headerType]; ok {
			contentType = headerType
		}
	}

	key := storage.ObjectKey(uuid.NewString(), file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	url, err := h.s3.Upload(c.Request.Context(), h.s3.MediaBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("media upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	out := gin.H{
		"key":          key,
		"url":          url,
		"content_type": contentType,
		"file_size":    file.Size,
		"filename":     file.Filename,
	}
	if contentType == "application/pdf" {
		signed, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.MediaBucket(), key, h.s3.PresignExpire())
		if err != nil {
			h.logger.Warn("presign download failed", zap.String("key", key), zap.Error(err))
		} else {
			out["download_url"] = signed
		}
	}
	response.OK(c, out)
}

// fetch parses :id and loads the post, writing the error response itself
// when either step fails.
func (h *Handler) fetch(c *gin.Context) (*models.Post, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return nil, false
	}
	p, err := h.store.PostByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "post not found")
			return nil, false
		}
		h.logger.Error("load post failed", zap.String("post_id", id.String()), zap.Error(err))
		response.Internal(c, "could not load post")
		return nil, false
	}
	return p, true
}

// uploadKeyFromURL extracts the object key when the URL points into our
// media bucket's uploads prefix; empty string otherwise.
func (h *Handler) uploadKeyFromURL(raw string) string {
	if raw == "" || h.s3 == nil {
		return ""
	}
	prefix := h.s3.PublicObjectURL(h.s3.MediaBucket(), "")
	if !strings.HasPrefix(raw, prefix) {
		return ""
	}
	key := strings.TrimPrefix(raw, prefix)
	if !strings.HasPrefix(key, storage.FolderUploads+"/") {
		return ""
	}
	return key
}
