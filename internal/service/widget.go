package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-widget/internal/backend"
	"support-widget/internal/domain"
	"support-widget/internal/locale"
)

const defaultMaxMessages = 100

// WidgetOptions configura una instancia. Endpoint es obligatorio aunque se inyecte Client.
type WidgetOptions struct {
	ContextID      string
	Endpoint       string
	BackendTimeout time.Duration
	Client         backend.Client
	Store          MessageStore
	Renderer       Renderer
	Markdown       MarkdownConverter
	Cue            AudioCue
	Logger         *zap.Logger
	Registry       *Registry

	// MaxMessages acota el view en memoria igual que el historial persistido. Default 100.
	MaxMessages int

	// AcceptLocaleEcho deja que el locale devuelto por el backend reemplace el local
	// en toda respuesta posterior al primer request de la conversacion.
	AcceptLocaleEcho bool
}

// RatingInput es lo que el usuario envia desde el widget de calificacion.
type RatingInput struct {
	Rating         int    `json:"rating"`
	FeedbackOption string `json:"feedback_option"`
	FeedbackText   string `json:"feedback_text"`
}

// Snapshot es una copia de solo lectura del estado y el view.
type Snapshot struct {
	ContextID string                   `json:"context_id"`
	State     domain.ConversationState `json:"state"`
	View      domain.View              `json:"view"`
	InFlight  bool                     `json:"in_flight"`
}

// Widget es una conversacion de soporte ligada a un contexto de navegacion.
type Widget struct {
	id               string
	client           backend.Client
	store            MessageStore
	renderer         Renderer
	markdown         MarkdownConverter
	cue              AudioCue
	logger           *zap.Logger
	registry         *Registry
	acceptLocaleEcho bool
	maxMessages      int
	now              func() time.Time

	mu       sync.Mutex
	state    domain.ConversationState
	view     domain.View
	page     domain.PageContext
	inFlight bool
	opened   bool
	closed   bool
	// mensajes descartados del view; mantiene unicos los ids de sets y ratings
	dropped  int
}

// NewWidget valida la configuracion y registra la instancia.
func NewWidget(opts WidgetOptions) (*Widget, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, backend.ErrMissingEndpoint
	}
	if opts.Store == nil {
		return nil, ErrMissingStore
	}
	if opts.Renderer == nil {
		return nil, ErrMissingRenderer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := opts.Client
	if client == nil {
		httpClient, err := backend.NewHTTPClient(opts.Endpoint, logger, backend.WithTimeout(opts.BackendTimeout))
		if err != nil {
			return nil, err
		}
		client = httpClient
	}

	w := &Widget{
		id:               opts.ContextID,
		client:           client,
		store:            opts.Store,
		renderer:         opts.Renderer,
		markdown:         opts.Markdown,
		cue:              opts.Cue,
		logger:           logger,
		registry:         opts.Registry,
		acceptLocaleEcho: opts.AcceptLocaleEcho,
		maxMessages:      opts.MaxMessages,
		now:              time.Now,
	}
	if w.maxMessages <= 0 {
		w.maxMessages = defaultMaxMessages
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	if w.markdown == nil {
		w.markdown = plainMarkdown{}
	}
	if w.cue == nil {
		w.cue = silentCue{}
	}
	if w.registry != nil {
		if err := w.registry.Register(w.id, w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Widget) ID() string {
	return w.id
}

// Open restaura la conversacion guardada o, si no hay, pide el disclaimer inicial.
// Sobre un widget ya abierto vuelve a emitir el view completo (recarga de la pagina).
// Devuelve true si hubo restauracion.
func (w *Widget) Open(ctx context.Context, page domain.PageContext) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrWidgetClosed
	}
	if w.inFlight {
		return false, ErrRequestInFlight
	}
	if w.opened && len(w.view.Messages) > 0 {
		w.renderer.Clear()
		w.renderView()
		w.logger.Info("conversation replayed",
			zap.String("context_id", w.id),
			zap.String("step", w.state.CurrentStep.String()),
			zap.Int("messages", len(w.view.Messages)),
		)
		return true, nil
	}
	// primera apertura, o el request inicial fallo y se reintenta
	w.page = page
	return w.openLocked(ctx)
}

func (w *Widget) openLocked(ctx context.Context) (bool, error) {
	w.opened = true

	if sid := w.store.GetSessionID(ctx); sid != "" {
		messages := w.store.GetMessages(ctx)
		if len(messages) > 0 {
			state, view, ok := Restore(messages, domain.ConversationState{SessionID: sid})
			if ok {
				if state.Locale == "" {
					state.Locale = locale.Resolve(w.page)
				}
				w.state = state
				w.view = view
				w.renderView()
				w.logger.Info("conversation restored",
					zap.String("context_id", w.id),
					zap.String("session_id", state.SessionID),
					zap.String("step", state.CurrentStep.String()),
					zap.Int("messages", len(messages)),
				)
				return true, nil
			}
		}
		// id sin historial equivale a no tener conversacion previa
		w.store.ClearSessionID(ctx)
	}

	w.state = domain.ConversationState{Locale: locale.Resolve(w.page)}
	w.view = domain.View{}
	w.dropped = 0
	next := w.state
	next.CurrentStep = domain.StepStartingDisclaimer
	req := requestFor(next)
	req.SessionID = ""
	return false, w.dispatchLocked(ctx, turn{req: req, next: next})
}

// StartChat responde a la affordance "Start Chat" del disclaimer inicial.
func (w *Widget) StartChat(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ready(); err != nil {
		return err
	}
	if w.view.Footer.Kind != domain.FooterStartChat {
		return fmt.Errorf("%w: start chat", ErrActionUnavailable)
	}
	next := w.state
	next.CurrentStep = domain.StepUserTypes
	return w.dispatchLocked(ctx, turn{req: requestFor(next), next: next})
}

// SelectOption procesa el click en una opcion de un set activo.
func (w *Widget) SelectOption(ctx context.Context, setID, optionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ready(); err != nil {
		return err
	}

	set, ok := w.findOptionSet(setID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOptionSet, setID)
	}
	if set.Disabled {
		return fmt.Errorf("%w: %s", ErrOptionSetDisabled, setID)
	}
	opt, ok := set.Find(optionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
	}

	if w.state.AskAnotherConfirmation {
		next, err := confirmOption(w.state, opt)
		if err != nil {
			return err
		}
		return w.dispatchLocked(ctx, turn{req: requestFor(next), next: next, echo: opt.OptionValue, setID: set.ID})
	}

	next, confirm, err := selectOption(w.state, set.Step, opt)
	if err != nil {
		return err
	}
	if confirm {
		w.askAnother(ctx, set.ID, opt)
		return nil
	}
	return w.dispatchLocked(ctx, turn{req: requestFor(next), next: next, echo: opt.OptionValue, setID: set.ID})
}

// SubmitText envia texto libre cuando el footer lo permite.
func (w *Widget) SubmitText(ctx context.Context, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ready(); err != nil {
		return err
	}
	if w.state.AskAnotherConfirmation {
		return ErrConfirmationPending
	}
	if w.view.Footer.Kind != domain.FooterTextInput {
		return ErrTextInputDisabled
	}
	next, err := submitText(w.state, text)
	if err != nil {
		return err
	}
	return w.dispatchLocked(ctx, turn{req: requestFor(next), next: next, echo: next.Question})
}

// SubmitRating envia la calificacion; al confirmarse la conversacion termina en el disclaimer final.
func (w *Widget) SubmitRating(ctx context.Context, in RatingInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ready(); err != nil {
		return err
	}
	widget, ok := w.view.LiveRating()
	if !ok || w.state.CurrentStep != domain.StepRating {
		return ErrRatingUnavailable
	}
	if in.Rating < 1 || in.Rating > 5 {
		return ErrInvalidRating
	}

	submission := domain.RatingSubmission{
		Rating:         in.Rating,
		FeedbackOption: strings.TrimSpace(in.FeedbackOption),
		FeedbackText:   strings.TrimSpace(in.FeedbackText),
	}
	var choice *domain.Option
	if submission.FeedbackOption != "" {
		for i := range widget.FeedbackOptions {
			if widget.FeedbackOptions[i].ID == submission.FeedbackOption {
				choice = &widget.FeedbackOptions[i]
				break
			}
		}
		if choice == nil {
			return fmt.Errorf("%w: %s", ErrUnknownFeedback, submission.FeedbackOption)
		}
	}

	next := w.state
	req := requestFor(next)
	rating := submission.Rating
	req.UserRating = &rating
	req.FeedbackOption = submission.FeedbackOption
	req.FeedbackText = submission.FeedbackText
	req.UserFeedback = feedbackDisplay(submission, choice)
	next.CurrentStep = domain.StepAIDisclaimer

	return w.dispatchLocked(ctx, turn{req: req, next: next, ratingID: widget.ID, rating: &submission})
}

// Reset borra la conversacion ("Start Over") y abre una nueva.
func (w *Widget) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWidgetClosed
	}
	if w.inFlight {
		return ErrRequestInFlight
	}
	w.store.ClearMessages(ctx)
	w.store.ClearSessionID(ctx)
	w.state = domain.ConversationState{}
	w.view = domain.View{}
	w.dropped = 0
	w.renderer.Clear()
	w.logger.Info("conversation reset", zap.String("context_id", w.id))
	_, err := w.openLocked(ctx)
	return err
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		ContextID: w.id,
		State:     w.state,
		View:      w.view.Clone(),
		InFlight:  w.inFlight,
	}
}

// Close libera el contexto en el registry. El historial persistido se conserva.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.registry != nil {
		w.registry.Release(w.id, w)
	}
}

func (w *Widget) ready() error {
	switch {
	case w.closed:
		return ErrWidgetClosed
	case !w.opened:
		return ErrNotOpened
	case w.inFlight:
		return ErrRequestInFlight
	}
	return nil
}

// dispatchLocked envia un turno. Se llama con w.mu tomado; lo suelta solo durante la llamada de red.
func (w *Widget) dispatchLocked(ctx context.Context, t turn) error {
	if w.inFlight {
		return ErrRequestInFlight
	}
	w.inFlight = true
	prev := w.state

	if t.setID != "" {
		w.setOptionSetDisabled(t.setID, true)
	}
	if t.ratingID != "" {
		w.setRatingDisabled(t.ratingID, true)
	}
	if t.echo != "" {
		w.appendMessage(ctx, prev.Stamp(domain.Message{
			Text:      t.echo,
			Step:      prev.CurrentStep,
			Timestamp: w.now().UTC(),
		}))
	}
	w.renderer.SetTyping(true)

	resp, err := w.roundTrip(ctx, t.req)
	if w.closed {
		return ErrWidgetClosed
	}
	if err != nil {
		if t.setID != "" {
			w.setOptionSetDisabled(t.setID, false)
		}
		if t.ratingID != "" {
			w.setRatingDisabled(t.ratingID, false)
		}
		w.renderer.ShowError(promptsFor(prev.Locale).RequestFailed)
		w.logger.Warn("turn failed",
			zap.String("context_id", w.id),
			zap.String("step", t.req.Step.String()),
			zap.Bool("transport", backend.IsTransport(err)),
			zap.Bool("protocol", backend.IsProtocol(err)),
			zap.Error(err),
		)
		return err
	}
	w.applyResponse(ctx, prev, t, resp)
	return nil
}

// roundTrip suelta w.mu durante la llamada de red. El lock y el guard se restauran
// aunque Send entre en panic, asi el Unlock diferido del llamador sigue siendo valido.
func (w *Widget) roundTrip(ctx context.Context, req domain.Request) (domain.Response, error) {
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.renderer.SetTyping(false)
	}()
	return w.client.Send(ctx, req)
}

// askAnother muestra la confirmacion local en vez de transicionar.
func (w *Widget) askAnother(ctx context.Context, setID string, opt domain.Option) {
	p := promptsFor(w.state.Locale)
	w.setOptionSetDisabled(setID, true)
	w.appendMessage(ctx, w.state.Stamp(domain.Message{
		Text:      opt.OptionValue,
		Step:      w.state.CurrentStep,
		Timestamp: w.now().UTC(),
	}))

	w.state.AskAnotherConfirmation = true
	w.supersede()
	footer := domain.Footer{Kind: domain.FooterSelectOption}
	w.appendBotMessage(ctx, w.state.Stamp(domain.Message{
		Text:      p.ConfirmQuestion,
		IsBot:     true,
		Step:      w.state.CurrentStep,
		Timestamp: w.now().UTC(),
		Options: []domain.Option{
			{ID: domain.OptionConfirmYes, OptionValue: p.Yes, Label: p.ConfirmLabel},
			{ID: domain.OptionConfirmNo, OptionValue: p.No, Label: p.ConfirmLabel},
		},
		InputMode:    footer.Kind,
		Confirmation: true,
	}))
	w.view.Footer = footer
	w.renderer.SetFooter(footer)
}

func (w *Widget) renderView() {
	sets := make(map[int]domain.OptionSet, len(w.view.OptionSets))
	for _, s := range w.view.OptionSets {
		sets[s.MessageIndex] = s
	}
	ratings := make(map[int]domain.RatingWidget, len(w.view.Ratings))
	for _, r := range w.view.Ratings {
		ratings[r.MessageIndex] = r
	}
	for i, msg := range w.view.Messages {
		w.renderer.AppendMessage(msg, w.markup(msg))
		if s, ok := sets[i]; ok {
			w.renderer.AppendOptionSet(s)
		}
		if r, ok := ratings[i]; ok {
			w.renderer.AppendRating(r)
		}
	}
	w.renderer.SetFooter(w.view.Footer)
}

func (w *Widget) findOptionSet(id string) (domain.OptionSet, bool) {
	for _, s := range w.view.OptionSets {
		if s.ID == id {
			return s, true
		}
	}
	return domain.OptionSet{}, false
}

func (w *Widget) setOptionSetDisabled(id string, disabled bool) {
	for i := range w.view.OptionSets {
		if w.view.OptionSets[i].ID != id {
			continue
		}
		w.view.OptionSets[i].Disabled = disabled
		if disabled {
			w.renderer.DisableOptionSet(id)
		} else {
			w.renderer.EnableOptionSet(id)
		}
	}
}

func (w *Widget) setRatingDisabled(id string, disabled bool) {
	for i := range w.view.Ratings {
		if w.view.Ratings[i].ID != id {
			continue
		}
		w.view.Ratings[i].Disabled = disabled
		if disabled {
			w.renderer.DisableRating(id)
		} else {
			w.renderer.EnableRating(id)
		}
	}
}
