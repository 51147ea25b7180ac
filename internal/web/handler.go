// Package web serves the analyzer page and its JSON and asset endpoints. Each
// browser session owns one view.
package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/background"
	"resume-analyzer-web/internal/fileref"
	"resume-analyzer-web/internal/render"
	"resume-analyzer-web/internal/shared/server/middleware"
	"resume-analyzer-web/internal/shared/server/respond"
	"resume-analyzer-web/internal/shared/storage/object"
	"resume-analyzer-web/internal/skillcloud"
	"resume-analyzer-web/internal/upload"
	"resume-analyzer-web/internal/view"
)

// FieldName is the multipart part carrying the resume on /select and /analyze.
const FieldName = "resume"

// Handler serves per-session routes.
type Handler struct {
	sessions  *Registry
	blobs     object.ObjectStore
	maxUpload int64
}

// NewHandler constructs a Handler. blobs must be the store backgrounds are saved in.
func NewHandler(sessions *Registry, blobs object.ObjectStore, maxUpload int64) *Handler {
	return &Handler{sessions: sessions, blobs: blobs, maxUpload: maxUpload}
}

// RegisterRoutes attaches the page and API routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.page)
	r.POST("/select", h.selectFile)
	r.POST("/analyze", h.analyze)
	r.GET("/api/state", h.state)
	r.GET("/blobs/:key", h.blob)
	r.GET("/skills-cloud.svg", h.cloudSVG)
	r.GET("/api/skills-cloud", h.cloudScene)
	r.GET("/api/skills-cloud/frame", h.cloudFrame)
}

// StateResponse is the JSON form of a session's view.
type StateResponse struct {
	Phase      upload.Phase      `json:"phase"`
	CanAnalyze bool              `json:"canAnalyze"`
	State      upload.State      `json:"state"`
	View       *render.View      `json:"view,omitempty"`
	Background *background.Image `json:"background,omitempty"`
}

func (h *Handler) current(c *gin.Context) *view.View {
	v, err := h.sessions.Get(middleware.SessionIDFromContext(c))
	switch {
	case errors.Is(err, ErrRegistryFull):
		c.Header("Retry-After", "60")
		respond.Error(c, http.StatusServiceUnavailable, "too_many_sessions", "too many active sessions, try again later", nil)
		return nil
	case err != nil:
		respond.Error(c, http.StatusServiceUnavailable, "shutting_down", "server is shutting down", nil)
		return nil
	}
	return v
}

func (h *Handler) page(c *gin.Context) {
	v := h.current(c)
	if v == nil {
		return
	}
	state := v.Upload().State()
	data := pageData{
		State:      state,
		Phase:      state.Phase(),
		CanAnalyze: v.Upload().CanAnalyze(),
		Result:     render.Build(state.Result),
	}
	if img, ok := v.Background(); ok {
		data.Background = "/blobs/" + img.Key
	}
	if scene := v.Scene(); scene != nil {
		data.CloudKey = scene.Key
	}
	c.Set(middleware.PhaseKey, string(data.Phase))

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		respond.Error(c, http.StatusInternalServerError, "render_failed", "Failed to render page", nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) selectFile(c *gin.Context) {
	v := h.current(c)
	if v == nil {
		return
	}
	ref, ok := h.formFile(c, true)
	if !ok {
		return
	}
	v.Upload().SelectFile(ref)
	h.afterAction(c, v, http.StatusOK)
}

func (h *Handler) analyze(c *gin.Context) {
	v := h.current(c)
	if v == nil {
		return
	}
	ref, ok := h.formFile(c, false)
	if !ok {
		return
	}
	if ref != nil {
		v.Upload().SelectFile(ref)
	}

	if err := v.Upload().Start(); err != nil {
		c.Set(middleware.PhaseKey, string(v.Upload().State().Phase()))
		switch {
		case errors.Is(err, upload.ErrAnalyzeDisabled):
			respond.Error(c, http.StatusConflict, "analyze_disabled", err.Error(), nil)
		case errors.Is(err, upload.ErrClosed):
			respond.Error(c, http.StatusGone, "session_closed", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		}
		return
	}
	h.afterAction(c, v, http.StatusAccepted)
}

// formFile reads the resume part. With required unset a missing part is not
// an error and yields a nil Ref.
func (h *Handler) formFile(c *gin.Context, required bool) (*fileref.Ref, bool) {
	fh, err := c.FormFile(FieldName)
	if err != nil {
		if !required && (errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)) {
			return nil, true
		}
		respond.Error(c, http.StatusBadRequest, "invalid_file", "A resume file is required", nil)
		return nil, false
	}
	ref, err := fileref.FromMultipart(fh, h.maxUpload)
	if err != nil {
		if errors.Is(err, fileref.ErrTooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), gin.H{"maxBytes": h.maxUpload})
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "invalid_file", err.Error(), nil)
		return nil, false
	}
	return ref, true
}

// afterAction redirects browsers back to the page and answers API clients with the state.
func (h *Handler) afterAction(c *gin.Context, v *view.View, status int) {
	c.Set(middleware.PhaseKey, string(v.Upload().State().Phase()))
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	respond.JSON(c, status, snapshot(v))
}

func (h *Handler) state(c *gin.Context) {
	v := h.current(c)
	if v == nil {
		return
	}
	resp := snapshot(v)
	c.Set(middleware.PhaseKey, string(resp.Phase))
	c.Header("Cache-Control", "no-store")
	respond.OK(c, resp)
}

func (h *Handler) blob(c *gin.Context) {
	v := h.current(c)
	if v == nil {
		return
	}
	key := c.Param("key")
	img, ok := v.Background()
	if !ok || img.Key != key {
		respond.Error(c, http.StatusNotFound, "not_found", "Blob not found", nil)
		return
	}
	rc, err := h.blobs.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Blob not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to open blob", nil)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "private, max-age=3600")
	c.DataFromReader(http.StatusOK, img.Size, img.ContentType, rc, nil)
}

func (h *Handler) scene(c *gin.Context) *skillcloud.Scene {
	v := h.current(c)
	if v == nil {
		return nil
	}
	scene := v.Scene()
	if scene == nil {
		respond.Error(c, http.StatusNotFound, "no_skills", "No skills to visualize", nil)
		return nil
	}
	return scene
}

func (h *Handler) cloudSVG(c *gin.Context) {
	scene := h.scene(c)
	if scene == nil {
		return
	}
	var buf bytes.Buffer
	if err := skillcloud.WriteSVG(&buf, scene, skillcloud.DefaultSVGOptions()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "render_failed", "Failed to render skills cloud", nil)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (h *Handler) cloudScene(c *gin.Context) {
	scene := h.scene(c)
	if scene == nil {
		return
	}
	respond.OK(c, scene)
}

func (h *Handler) cloudFrame(c *gin.Context) {
	ms := int64(0)
	if raw := strings.TrimSpace(c.Query("t")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			respond.Error(c, http.StatusBadRequest, "invalid_time", "t must be a non-negative number of milliseconds", nil)
			return
		}
		ms = v
	}
	scene := h.scene(c)
	if scene == nil {
		return
	}
	respond.OK(c, scene.Frame(time.Duration(ms)*time.Millisecond))
}

func snapshot(v *view.View) StateResponse {
	state := v.Upload().State()
	resp := StateResponse{
		Phase:      state.Phase(),
		CanAnalyze: v.Upload().CanAnalyze(),
		State:      state,
		View:       render.Build(state.Result),
	}
	if img, ok := v.Background(); ok {
		resp.Background = &img
	}
	return resp
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
