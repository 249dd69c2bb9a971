package http

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-widget/internal/backend"
	"support-widget/internal/domain"
	"support-widget/internal/render"
	"support-widget/internal/service"
)

// WidgetFactory construye el widget de un contexto con el renderer dado.
type WidgetFactory func(contextID string, renderer service.Renderer) (*service.Widget, error)

type widgetSession struct {
	widget   *service.Widget
	recorder *render.Recorder
}

// WidgetHandler expone un widget por contexto de navegacion a la pagina anfitriona.
type WidgetHandler struct {
	logger  *zap.Logger
	tokens  *service.ContextTokenService
	limiter service.BootRateLimiter
	factory WidgetFactory

	allowedOrigins map[string]bool

	mu       sync.Mutex
	sessions map[string]*widgetSession
}

func NewWidgetHandler(
	logger *zap.Logger,
	tokens *service.ContextTokenService,
	limiter service.BootRateLimiter,
	factory WidgetFactory,
	allowedOrigins []string,
) *WidgetHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WidgetHandler{
		logger:         logger,
		tokens:         tokens,
		limiter:        limiter,
		factory:        factory,
		allowedOrigins: origins,
		sessions:       make(map[string]*widgetSession),
	}
}

type turnResponse struct {
	Instructions []render.Instruction     `json:"instructions"`
	State        domain.ConversationState `json:"state"`
	Footer       domain.Footer            `json:"footer"`
	Restored     *bool                    `json:"restored,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// Boot maneja POST /widget/boot.
func (h *WidgetHandler) Boot(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many widgets"})
		return
	}
	tok, err := h.tokens.Issue()
	if err != nil {
		h.logger.Error("issue context token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not boot widget"})
		return
	}
	c.JSON(http.StatusCreated, tok)
}

// Open maneja POST /widget/open.
func (h *WidgetHandler) Open(c *gin.Context) {
	var req domain.PageContext
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid open request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.session(c, true)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	restored, err := sess.widget.Open(c.Request.Context(), req)
	if err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, &restored)
}

// Start maneja POST /widget/start.
func (h *WidgetHandler) Start(c *gin.Context) {
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if err := sess.widget.StartChat(c.Request.Context()); err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, nil)
}

// SelectOption maneja POST /widget/options.
func (h *WidgetHandler) SelectOption(c *gin.Context) {
	var req struct {
		OptionSetID string `json:"option_set_id" binding:"required"`
		OptionID    string `json:"option_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid select option request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if err := sess.widget.SelectOption(c.Request.Context(), req.OptionSetID, req.OptionID); err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, nil)
}

// SubmitText maneja POST /widget/messages.
func (h *WidgetHandler) SubmitText(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit text request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if err := sess.widget.SubmitText(c.Request.Context(), req.Text); err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, nil)
}

// SubmitRating maneja POST /widget/rating.
func (h *WidgetHandler) SubmitRating(c *gin.Context) {
	var req service.RatingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rating request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if err := sess.widget.SubmitRating(c.Request.Context(), req); err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, nil)
}

// Reset maneja POST /widget/reset.
func (h *WidgetHandler) Reset(c *gin.Context) {
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if err := sess.widget.Reset(c.Request.Context()); err != nil {
		h.fail(c, sess, err)
		return
	}
	h.respond(c, sess, nil)
}

// State maneja GET /widget/state y devuelve el snapshot completo.
func (h *WidgetHandler) State(c *gin.Context) {
	sess, err := h.session(c, false)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, sess.widget.Snapshot())
}

// Close maneja DELETE /widget.
func (h *WidgetHandler) Close(c *gin.Context) {
	claims, ok := GetContextClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.mu.Lock()
	sess := h.sessions[claims.ContextID]
	delete(h.sessions, claims.ContextID)
	h.mu.Unlock()

	if sess != nil {
		sess.widget.Close()
	}
	if err := h.tokens.Revoke(claims); err != nil {
		h.logger.Warn("revoke context token failed", zap.String("context_id", claims.ContextID), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

var errNoWidget = errors.New("widget not opened for this context")

func (h *WidgetHandler) session(c *gin.Context, create bool) (*widgetSession, error) {
	claims, ok := GetContextClaims(c)
	if !ok {
		return nil, service.ErrTokenInvalid
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[claims.ContextID]; ok {
		return sess, nil
	}
	if !create {
		return nil, errNoWidget
	}
	recorder := render.NewRecorder()
	w, err := h.factory(claims.ContextID, recorder)
	if err != nil {
		return nil, err
	}
	sess := &widgetSession{widget: w, recorder: recorder}
	h.sessions[claims.ContextID] = sess
	return sess, nil
}

func (h *WidgetHandler) respond(c *gin.Context, sess *widgetSession, restored *bool) {
	snap := sess.widget.Snapshot()
	c.JSON(http.StatusOK, turnResponse{
		Instructions: sess.recorder.Drain(),
		State:        snap.State,
		Footer:       snap.View.Footer,
		Restored:     restored,
	})
}

func (h *WidgetHandler) fail(c *gin.Context, sess *widgetSession, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("widget call failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Warn("widget call rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	if sess == nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	snap := sess.widget.Snapshot()
	c.JSON(status, turnResponse{
		Instructions: sess.recorder.Drain(),
		State:        snap.State,
		Footer:       snap.View.Footer,
		Error:        err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, errNoWidget),
		errors.Is(err, service.ErrWidgetAlreadyActive),
		errors.Is(err, service.ErrWidgetClosed),
		errors.Is(err, service.ErrNotOpened),
		errors.Is(err, service.ErrRequestInFlight),
		errors.Is(err, service.ErrActionUnavailable),
		errors.Is(err, service.ErrConfirmationPending),
		errors.Is(err, service.ErrTextInputDisabled),
		errors.Is(err, service.ErrRatingUnavailable),
		errors.Is(err, service.ErrOptionSetDisabled):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownOptionSet),
		errors.Is(err, service.ErrUnknownOption),
		errors.Is(err, service.ErrInvalidConfirmation),
		errors.Is(err, service.ErrUnknownFeedback),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrEmptyText):
		return http.StatusUnprocessableEntity
	case backend.IsTransport(err), backend.IsProtocol(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
