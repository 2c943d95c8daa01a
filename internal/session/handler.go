package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/catalog"
	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/pkg/response"
)

// StartRequest is the body for POST /api/stream/start. All fields are
// optional; missing values fall back to the current defaults.
type StartRequest struct {
	Quality     string `json:"quality"`
	BitrateKbps int    `json:"bitrate"`
	FPS         int    `json:"fps"`
	Background  string `json:"background"`
	Avatar      string `json:"avatar"`
}

// ProductRequest is the body for POST /api/products.
type ProductRequest struct {
	Name                string          `json:"name" binding:"required"`
	Price               decimal.Decimal `json:"price"`
	PromoPrice          decimal.Decimal `json:"promoPrice"`
	Stock               int             `json:"stock"`
	Category            string          `json:"category"`
	Description         string          `json:"description"`
	IsFlashSale         bool            `json:"isFlashSale"`
	SaleDurationMinutes int             `json:"saleDuration"`
}

// SpeakHTTPRequest is the body for POST /api/avatar/speak. Voice fields
// are optional; anything omitted falls back to the session's current
// voice configuration (pitch is a pointer because 0 is a valid value).
type SpeakHTTPRequest struct {
	Text  string   `json:"text" binding:"required"`
	Queue bool     `json:"queue"`
	Voice string   `json:"voice"`
	Speed float64  `json:"speed"`
	Pitch *float64 `json:"pitch"`
}

// ScriptTemplateRequest is the body for POST /api/products/:id/script.
type ScriptTemplateRequest struct {
	Template string `json:"template" binding:"required"`
	Queue    bool   `json:"queue"`
}

// Handler exposes the session REST surface.
type Handler struct {
	mgr   *Manager
	store *catalog.Store
}

// NewHandler creates a session handler.
func NewHandler(mgr *Manager, store *catalog.Store) *Handler {
	return &Handler{mgr: mgr, store: store}
}

// Register mounts the session routes on the given group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/stream/start", h.StartStream)
	api.POST("/stream/stop", h.StopStream)
	api.GET("/stream/status", h.Status)
	api.GET("/stats", h.Stats)

	api.GET("/products", h.ListProducts)
	api.POST("/products", h.CreateProduct)
	api.DELETE("/products/:id", h.DeleteProduct)
	api.POST("/products/:id/pitch", h.Pitch)

	api.GET("/queue", h.ListQueue)
	api.POST("/avatar/speak", h.Speak)

	api.GET("/scripts/templates", h.ListTemplates)
	api.POST("/products/:id/script", h.Script)
}

// StartStream handles POST /api/stream/start.
func (h *Handler) StartStream(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sess, err := h.mgr.Start(models.StreamSettings{
		Quality:        req.Quality,
		BitrateKbps:    req.BitrateKbps,
		FPS:            req.FPS,
		Background:     req.Background,
		SelectedAvatar: req.Avatar,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyLive) {
			response.Conflict(c, "stream already live")
			return
		}
		response.Internal(c, "failed to start stream")
		return
	}
	response.OK(c, sess)
}

// StopStream handles POST /api/stream/stop.
func (h *Handler) StopStream(c *gin.Context) {
	h.mgr.Stop()
	response.OK(c, gin.H{"state": models.StateIdle})
}

// Status handles GET /api/stream/status.
func (h *Handler) Status(c *gin.Context) {
	response.OK(c, h.mgr.Session())
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(c *gin.Context) {
	response.OK(c, h.mgr.Snapshot())
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(c *gin.Context) {
	response.OK(c, h.store.List())
}

// CreateProduct handles POST /api/products.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Product{
		Name:                req.Name,
		Price:               req.Price,
		PromoPrice:          req.PromoPrice,
		Stock:               req.Stock,
		Category:            req.Category,
		Description:         req.Description,
		IsFlashSale:         req.IsFlashSale,
		SaleDurationMinutes: req.SaleDurationMinutes,
	}
	response.Created(c, h.mgr.AddProduct(p))
}

// DeleteProduct handles DELETE /api/products/:id.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	if !h.mgr.RemoveProduct(id) {
		response.NotFound(c, "product not found")
		return
	}
	response.NoContent(c)
}

// Pitch handles POST /api/products/:id/pitch.
func (h *Handler) Pitch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	items, err := h.mgr.PitchProduct(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		response.Internal(c, "failed to pitch product")
		return
	}
	response.OK(c, items)
}

// ListQueue handles GET /api/queue.
func (h *Handler) ListQueue(c *gin.Context) {
	response.OK(c, h.mgr.Queue().Items())
}

// Speak handles POST /api/avatar/speak. With queue=true the line joins
// the rate-limited queue, otherwise it goes straight to the avatar.
func (h *Handler) Speak(c *gin.Context) {
	var req SpeakHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Queue {
		response.OK(c, h.mgr.EnqueueScript(req.Text))
		return
	}
	voice := h.mgr.Voice()
	if req.Voice != "" {
		voice.Voice = req.Voice
	}
	if req.Speed > 0 {
		voice.Speed = req.Speed
	}
	if req.Pitch != nil {
		voice.Pitch = *req.Pitch
	}
	h.mgr.SpeakNow(models.SpeakRequest{
		Text:  req.Text,
		Voice: voice.Voice,
		Speed: voice.Speed,
		Pitch: voice.Pitch,
	})
	response.OK(c, gin.H{"spoken": true})
}

// ListTemplates handles GET /api/scripts/templates.
func (h *Handler) ListTemplates(c *gin.Context) {
	response.OK(c, catalog.TemplateNames())
}

// Script handles POST /api/products/:id/script: fills a named script
// template with the product's values, optionally enqueueing the result.
func (h *Handler) Script(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	var req ScriptTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, ok := h.store.Get(id)
	if !ok {
		response.NotFound(c, "product not found")
		return
	}
	text, err := catalog.FillTemplate(req.Template, p)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownTemplate) {
			response.BadRequest(c, "unknown template: "+req.Template)
			return
		}
		response.Internal(c, "failed to fill template")
		return
	}
	if req.Queue {
		response.OK(c, h.mgr.EnqueueScript(text))
		return
	}
	response.OK(c, gin.H{"template": req.Template, "text": text})
}
