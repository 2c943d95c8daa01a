package avatar

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/larisin-live/backend/pkg/response"
)

// Handler exposes the avatar frame endpoint.
type Handler struct {
	client *Client
}

// NewHandler creates an avatar handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Frame handles GET /api/avatar/frame?gesture=&speaking=&text=. It
// redirects to the backend's MJPEG stream so the dashboard never needs
// the backend's address.
func (h *Handler) Frame(c *gin.Context) {
	if !h.client.Enabled() {
		response.ServiceUnavailable(c, "avatar backend not configured (AVATAR_BASE_URL)")
		return
	}
	speaking, _ := strconv.ParseBool(c.Query("speaking"))
	target := h.client.FrameURL(c.Query("gesture"), speaking, c.Query("text"))
	c.Redirect(http.StatusTemporaryRedirect, target)
}
