package service

import (
	"support-widget/internal/domain"
)

// Restore reconstruye estado y view a partir del historial persistido, sin red.
// Es una funcion pura: el mismo historial produce siempre el mismo resultado.
// restored es false cuando el historial esta vacio.
func Restore(messages []domain.Message, state domain.ConversationState) (domain.ConversationState, domain.View, bool) {
	if len(messages) == 0 {
		return state, domain.View{}, false
	}

	state = backfill(messages, state)

	current := state.CurrentStep
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Step != "" {
			current = messages[i].Step
			break
		}
	}
	for _, m := range messages {
		if m.Step.IsTerminal() {
			current = m.Step
			break
		}
	}
	state.CurrentStep = current

	view := buildView(messages)

	lastBot := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsBot {
			lastBot = i
			break
		}
	}

	state.AskAnotherConfirmation = false
	for i := range view.OptionSets {
		set := &view.OptionSets[i]
		switch {
		case current.IsTerminal():
			set.Disabled = true
		case set.Confirmation:
			if set.MessageIndex == lastBot && current != domain.StepRating {
				state.AskAnotherConfirmation = true
			} else {
				set.Disabled = true
			}
		case set.MessageIndex != lastBot:
			// una respuesta posterior del bot ya lo reemplazo, aunque comparta el paso
			set.Disabled = true
		case set.Step != current && (resolved(set.Step, current, state) || movedPast(messages, set.MessageIndex, set.Step)):
			set.Disabled = true
		}
	}
	for i := range view.Ratings {
		r := &view.Ratings[i]
		if r.Submitted != nil || current != domain.StepRating || r.MessageIndex != lastBot {
			r.Disabled = true
		}
	}

	view.Footer = restoredFooter(messages, lastBot, state)
	return state, view, true
}

// backfill completa, del mensaje mas reciente hacia atras, los campos aun vacios.
// Una seleccion solo se busca hasta el ultimo mensaje del bot que la volvio a pedir:
// lo anterior pertenece a una ronda ya cerrada (por ejemplo, antes de "preguntar otra").
func backfill(messages []domain.Message, state domain.ConversationState) domain.ConversationState {
	userTypeOpen, categoryOpen, questionOpen := true, true, true
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if state.SessionID == "" {
			state.SessionID = m.SessionID
		}
		if userTypeOpen && state.UserType == "" {
			state.UserType = m.UserType
		}
		if categoryOpen && state.ConcernCategory == "" {
			state.ConcernCategory = m.ConcernCategory
		}
		if questionOpen && state.Question == "" {
			state.Question = m.Question
		}
		if state.Locale == "" {
			state.Locale = m.Locale
		}
		if state.CurrentStep == "" {
			state.CurrentStep = m.Step
		}
		if !m.IsBot {
			continue
		}
		switch m.Step {
		case domain.StepUserTypes:
			userTypeOpen, categoryOpen, questionOpen = false, false, false
		case domain.StepConcernCategories:
			categoryOpen, questionOpen = false, false
		case domain.StepTopQuestions:
			questionOpen = false
		}
	}
	return state
}

// buildView re-crea mensajes, sets y ratings en orden; los ids salen del indice del mensaje.
func buildView(messages []domain.Message) domain.View {
	view := domain.View{Messages: append([]domain.Message(nil), messages...)}
	for i, m := range messages {
		switch {
		case m.IsRatingMessage():
			view.Ratings = append(view.Ratings, domain.RatingWidget{
				ID:              domain.RatingID(i),
				MessageIndex:    i,
				Message:         m.RatingMessage,
				FeedbackOptions: m.FeedbackOptions,
				Submitted:       m.Rating,
			})
		case len(m.Options) > 0:
			view.OptionSets = append(view.OptionSets, domain.OptionSet{
				ID:           domain.OptionSetID(i),
				Step:         m.Step,
				MessageIndex: i,
				Options:      m.Options,
				Confirmation: m.Confirmation,
			})
		}
	}
	return view
}

// resolved indica si el estado recuperado ya tiene respuesta para ese paso.
func resolved(step, current domain.Step, state domain.ConversationState) bool {
	switch step {
	case domain.StepUserTypes:
		return state.UserType != ""
	case domain.StepConcernCategories:
		return state.ConcernCategory != ""
	case domain.StepTopQuestions:
		return state.Question != ""
	case domain.StepQueryAnswer:
		return current != domain.StepQueryAnswer
	}
	return false
}

var flowRank = map[domain.Step]int{
	domain.StepStartingDisclaimer: 1,
	domain.StepUserTypes:          2,
	domain.StepConcernCategories:  3,
	domain.StepTopQuestions:       4,
	domain.StepQueryAnswer:        5,
}

// movedPast reporta si un mensaje posterior del bot ya avanzo mas alla del paso en el flujo lineal.
func movedPast(messages []domain.Message, index int, step domain.Step) bool {
	rank, ok := flowRank[step]
	if !ok || step == domain.StepQueryAnswer {
		return false
	}
	for _, m := range messages[index+1:] {
		if !m.IsBot {
			continue
		}
		if r, ok := flowRank[m.Step]; ok && r > rank {
			return true
		}
	}
	return false
}

func restoredFooter(messages []domain.Message, lastBot int, state domain.ConversationState) domain.Footer {
	if state.CurrentStep.IsTerminal() {
		return domain.Footer{Kind: domain.FooterStartOver}
	}
	if state.AskAnotherConfirmation {
		return domain.Footer{Kind: domain.FooterSelectOption}
	}
	if lastBot >= 0 {
		m := messages[lastBot]
		if m.InputMode != "" {
			return domain.Footer{Kind: m.InputMode, PrivacyURL: m.PrivacyURL, TermsURL: m.TermsURL}
		}
	}
	return footerFor(state, domain.Response{})
}
