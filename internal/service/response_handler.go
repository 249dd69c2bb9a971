package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"support-widget/internal/domain"
	"support-widget/internal/locale"
)

// footerFor decide la affordance de entrada para el estado confirmado.
func footerFor(st domain.ConversationState, resp domain.Response) domain.Footer {
	switch st.CurrentStep {
	case domain.StepStartingDisclaimer:
		return domain.Footer{Kind: domain.FooterStartChat, PrivacyURL: resp.PrivacyURL, TermsURL: resp.TermsURL}
	case domain.StepRating:
		return domain.Footer{Kind: domain.FooterNone}
	case domain.StepAIDisclaimer:
		return domain.Footer{Kind: domain.FooterStartOver}
	}
	if st.AskAnotherConfirmation {
		return domain.Footer{Kind: domain.FooterSelectOption}
	}
	if st.CurrentStep == domain.StepQueryAnswer || strings.TrimSpace(resp.Answer) != "" {
		return domain.Footer{Kind: domain.FooterTextInput}
	}
	if resp.TextInputEnabled != nil {
		if *resp.TextInputEnabled {
			return domain.Footer{Kind: domain.FooterTextInput}
		}
		return domain.Footer{Kind: domain.FooterSelectOption}
	}
	if st.ConcernCategory == domain.CategorySomethingElse {
		return domain.Footer{Kind: domain.FooterTextInput}
	}
	return domain.Footer{Kind: domain.FooterSelectOption}
}

// reconcile calcula el estado confirmado a partir del turno y la respuesta ya validada.
func (w *Widget) reconcile(prev domain.ConversationState, t turn, resp domain.Response) domain.ConversationState {
	next := t.next

	if sid := strings.TrimSpace(resp.SessionID); sid != "" {
		switch {
		case prev.SessionID == "" || t.req.SessionID == "":
			next.SessionID = sid
		case sid != prev.SessionID:
			w.logger.Warn("ignoring session id change from backend",
				zap.String("context_id", w.id),
				zap.String("session_id", prev.SessionID),
				zap.String("echoed", sid),
			)
			next.SessionID = prev.SessionID
		}
	}

	step := resp.Step
	if step == "" {
		step = t.req.Step
	}
	if t.req.IsRatingSubmission() {
		step = domain.StepAIDisclaimer
	}
	next.CurrentStep = step

	if w.acceptLocaleEcho && t.req.Step != domain.StepStartingDisclaimer {
		if code := locale.Normalize(resp.Locale); code != "" {
			next.Locale = code
		}
	}
	return next
}

// applyResponse confirma el estado y renderiza/persiste el mensaje del bot. Requiere w.mu.
func (w *Widget) applyResponse(ctx context.Context, prev domain.ConversationState, t turn, resp domain.Response) {
	next := w.reconcile(prev, t, resp)
	w.state = next

	if next.SessionID != "" && next.SessionID != prev.SessionID {
		w.store.SaveSessionID(ctx, next.SessionID)
	}

	w.supersede()
	if t.rating != nil {
		w.finishRating(ctx, t.ratingID, *t.rating)
	}

	footer := footerFor(next, resp)
	msg := next.Stamp(domain.Message{
		Text:      resp.DisplayText(),
		IsBot:     true,
		Step:      next.CurrentStep,
		Timestamp: w.now().UTC(),
		InputMode: footer.Kind,
	})
	if next.CurrentStep == domain.StepRating {
		msg.FeedbackOptions = resp.FeedbackChoices(next.CurrentStep)
		msg.RatingMessage = resp.RatingMessage
	} else {
		msg.Options = resp.Options
	}
	if next.CurrentStep == domain.StepStartingDisclaimer {
		msg.PrivacyURL = resp.PrivacyURL
		msg.TermsURL = resp.TermsURL
	}

	w.appendBotMessage(ctx, msg)
	w.view.Footer = footer
	w.renderer.SetFooter(footer)

	w.logger.Info("turn applied",
		zap.String("context_id", w.id),
		zap.String("session_id", next.SessionID),
		zap.String("step", next.CurrentStep.String()),
		zap.String("footer", string(footer.Kind)),
	)
}

// appendBotMessage agrega al view, renderiza, persiste y dispara el cue.
func (w *Widget) appendBotMessage(ctx context.Context, msg domain.Message) {
	index := w.appendMessage(ctx, msg)

	switch {
	case msg.IsRatingMessage():
		rating := domain.RatingWidget{
			ID:              domain.RatingID(w.dropped + index),
			MessageIndex:    index,
			Message:         msg.RatingMessage,
			FeedbackOptions: msg.FeedbackOptions,
		}
		w.view.Ratings = append(w.view.Ratings, rating)
		w.renderer.AppendRating(rating)
	case len(msg.Options) > 0:
		set := domain.OptionSet{
			ID:           domain.OptionSetID(w.dropped + index),
			Step:         msg.Step,
			MessageIndex: index,
			Options:      msg.Options,
			Confirmation: msg.Confirmation,
		}
		w.view.OptionSets = append(w.view.OptionSets, set)
		w.renderer.AppendOptionSet(set)
	}
	w.cue.Play()
}

func (w *Widget) appendMessage(ctx context.Context, msg domain.Message) int {
	w.view.Messages = append(w.view.Messages, msg)
	w.trimView()
	w.renderer.AppendMessage(msg, w.markup(msg))
	w.store.AppendMessage(ctx, msg)
	return len(w.view.Messages) - 1
}

// trimView descarta los mensajes mas viejos por encima de maxMessages junto con sus sets y ratings.
func (w *Widget) trimView() {
	over := len(w.view.Messages) - w.maxMessages
	if over <= 0 {
		return
	}
	w.view.Messages = append([]domain.Message(nil), w.view.Messages[over:]...)

	sets := make([]domain.OptionSet, 0, len(w.view.OptionSets))
	for _, set := range w.view.OptionSets {
		if set.MessageIndex < over {
			continue
		}
		set.MessageIndex -= over
		sets = append(sets, set)
	}
	w.view.OptionSets = sets

	ratings := make([]domain.RatingWidget, 0, len(w.view.Ratings))
	for _, r := range w.view.Ratings {
		if r.MessageIndex < over {
			continue
		}
		r.MessageIndex -= over
		ratings = append(ratings, r)
	}
	w.view.Ratings = ratings
	w.dropped += over
}

func (w *Widget) markup(msg domain.Message) string {
	if !msg.IsBot || msg.Text == "" {
		return msg.Text
	}
	out, err := w.markdown.Convert(msg.Text)
	if err != nil {
		w.logger.Warn("markdown conversion failed", zap.String("context_id", w.id), zap.Error(err))
		return msg.Text
	}
	return out
}

// supersede deshabilita los sets y ratings que quedaron atras con la nueva respuesta.
func (w *Widget) supersede() {
	for i := range w.view.OptionSets {
		if !w.view.OptionSets[i].Disabled {
			w.view.OptionSets[i].Disabled = true
			w.renderer.DisableOptionSet(w.view.OptionSets[i].ID)
		}
	}
	for i := range w.view.Ratings {
		if !w.view.Ratings[i].Disabled {
			w.view.Ratings[i].Disabled = true
			w.renderer.DisableRating(w.view.Ratings[i].ID)
		}
	}
}

// finishRating deja el widget de calificacion deshabilitado para siempre y lo persiste.
func (w *Widget) finishRating(ctx context.Context, ratingID string, submission domain.RatingSubmission) {
	for i := range w.view.Ratings {
		r := &w.view.Ratings[i]
		if r.ID != ratingID {
			continue
		}
		r.Disabled = true
		r.Submitted = &submission
		if r.MessageIndex < len(w.view.Messages) {
			w.view.Messages[r.MessageIndex].Rating = &submission
		}
	}
	w.renderer.DisableRating(ratingID)
	w.store.AmendLastMessage(ctx, func(m *domain.Message) {
		if m.IsBot && m.Step == domain.StepRating {
			m.Rating = &submission
		}
	})
}
