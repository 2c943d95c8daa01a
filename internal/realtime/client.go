package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/larisin-live/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Commands is the control surface a connected dashboard may drive. The
// session manager implements it.
type Commands interface {
	Start(settings models.StreamSettings) (models.StreamSession, error)
	Stop()
	EnqueueScript(text string) models.ScriptItem
	RemoveScript(id int64) bool
	SpeakNow(req models.SpeakRequest)
	AddProduct(p *models.Product) models.Product
	RemoveProduct(id uuid.UUID) bool
	PitchProduct(id uuid.UUID) ([]models.ScriptItem, error)
	ConfirmOrder(o models.Order)
	ChangeAvatar(avatar string)
	ToggleAvatar(enabled bool)
	SetVoice(v models.VoiceConfig)
	SetAutoPitch(enabled bool)
	SetAutoReplies(a models.AutoReplies)
	SendChat(message string)
	Session() models.StreamSession
}

// Client represents a single dashboard WebSocket connection.
type Client struct {
	ID       string
	JoinedAt time.Time
	hub      *Hub
	cmds     Commands
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
// validate may be nil when the endpoint is open.
func ServeWs(hub *Hub, cmds Commands, validate func(token string) error, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validate != nil {
			if err := validate(c.Query("token")); err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &Client{
			ID:       uuid.New().String(),
			JoinedAt: time.Now(),
			hub:      hub,
			cmds:     cmds,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.handle(msg)
	}
}

// handle routes one inbound command. Malformed payloads are dropped with
// a debug log; a misbehaving dashboard must not take the loop down.
func (c *Client) handle(msg WSMessage) {
	switch msg.Event {
	case "join":
		c.hub.sendTo(c.ID, "session_state", c.cmds.Session())

	case "start_stream":
		var settings models.StreamSettings
		_ = json.Unmarshal(msg.Data, &settings)
		if _, err := c.cmds.Start(settings); err != nil {
			c.hub.sendTo(c.ID, "stream_error", map[string]string{"message": err.Error()})
		}

	case "stop_stream":
		c.cmds.Stop()

	case "enqueue_script":
		var payload struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil && payload.Text != "" {
			c.cmds.EnqueueScript(payload.Text)
		}

	case "remove_script":
		var payload struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil {
			c.cmds.RemoveScript(payload.ID)
		}

	case "speak":
		var req models.SpeakRequest
		if json.Unmarshal(msg.Data, &req) == nil && req.Text != "" {
			c.cmds.SpeakNow(req)
		}

	case "avatar_change":
		var payload struct {
			Avatar string `json:"avatar"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil && payload.Avatar != "" {
			c.cmds.ChangeAvatar(payload.Avatar)
		}

	case "toggle_avatar":
		var payload struct {
			Enabled bool `json:"enabled"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil {
			c.cmds.ToggleAvatar(payload.Enabled)
		}

	case "voice_change":
		var v models.VoiceConfig
		if json.Unmarshal(msg.Data, &v) == nil && v.Voice != "" {
			c.cmds.SetVoice(v)
		}

	case "product_added":
		var p models.Product
		if json.Unmarshal(msg.Data, &p) == nil && p.Name != "" {
			c.cmds.AddProduct(&p)
		}

	case "product_removed":
		var payload struct {
			ProductID uuid.UUID `json:"product_id"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil {
			c.cmds.RemoveProduct(payload.ProductID)
		}

	case "pitch_product":
		var payload struct {
			ProductID uuid.UUID `json:"product_id"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil {
			if _, err := c.cmds.PitchProduct(payload.ProductID); err != nil {
				c.hub.sendTo(c.ID, "stream_error", map[string]string{"message": err.Error()})
			}
		}

	case "confirm_order":
		var o models.Order
		if json.Unmarshal(msg.Data, &o) == nil && o.Product != "" {
			c.cmds.ConfirmOrder(o)
		}

	case "auto_pitch":
		var payload struct {
			Enabled bool `json:"enabled"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil {
			c.cmds.SetAutoPitch(payload.Enabled)
		}

	case "auto_replies":
		var a models.AutoReplies
		if json.Unmarshal(msg.Data, &a) == nil {
			c.cmds.SetAutoReplies(a)
		}

	case "send_chat":
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(msg.Data, &payload) == nil && payload.Message != "" {
			c.cmds.SendChat(payload.Message)
		}

	default:
		c.logger.Debug("unknown command", zap.String("event", msg.Event))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
