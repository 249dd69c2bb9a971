package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"support-widget/internal/render"
	"support-widget/internal/service"
)

const (
	streamBuffer     = 64
	streamWriteLimit = 5 * time.Second
)

// streamFrame es lo que viaja por el websocket: una instruccion o el snapshot inicial.
type streamFrame struct {
	Type        string              `json:"type"`
	Instruction *render.Instruction `json:"instruction,omitempty"`
	Snapshot    *service.Snapshot   `json:"snapshot,omitempty"`
}

func (h *WidgetHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.allowedOrigins[origin]
}

// Stream maneja GET /widget/stream. Los navegadores no pueden mandar headers en el
// handshake, asi que el token viaja en ?token=.
func (h *WidgetHandler) Stream(c *gin.Context) {
	claims, err := h.tokens.Parse(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.mu.Lock()
	sess := h.sessions[claims.ContextID]
	h.mu.Unlock()
	if sess == nil {
		c.JSON(http.StatusConflict, gin.H{"error": errNoWidget.Error()})
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("context_id", claims.ContextID), zap.Error(err))
		return
	}
	defer conn.Close()

	instructions, cancel := sess.recorder.Subscribe(streamBuffer)
	defer cancel()

	snap := sess.widget.Snapshot()
	if err := h.writeFrame(conn, streamFrame{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	// El cliente no manda nada; leer solo sirve para detectar el cierre.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("websocket closed unexpectedly", zap.String("context_id", claims.ContextID), zap.Error(err))
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case in, ok := <-instructions:
			if !ok {
				return
			}
			if err := h.writeFrame(conn, streamFrame{Type: "instruction", Instruction: &in}); err != nil {
				h.logger.Warn("websocket write failed", zap.String("context_id", claims.ContextID), zap.Error(err))
				return
			}
		}
	}
}

func (h *WidgetHandler) writeFrame(conn *websocket.Conn, frame streamFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteLimit)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
