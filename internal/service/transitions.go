package service

import (
	"fmt"
	"strings"

	"support-widget/internal/domain"
)

// turn es un request listo para despachar junto con el estado que se confirma si responde bien.
type turn struct {
	req      domain.Request
	next     domain.ConversationState
	echo     string
	setID    string
	ratingID string
	rating   *domain.RatingSubmission
}

func requestFor(st domain.ConversationState) domain.Request {
	return domain.Request{
		Step:            st.CurrentStep,
		SessionID:       st.SessionID,
		UserType:        st.UserType,
		ConcernCategory: st.ConcernCategory,
		Question:        st.Question,
		Locale:          st.Locale,
	}
}

// selectOption aplica la tabla de transiciones a un click en un set del paso step.
// confirm=true significa que el click debe pasar por la confirmacion de "otra pregunta".
func selectOption(st domain.ConversationState, step domain.Step, opt domain.Option) (next domain.ConversationState, confirm bool, err error) {
	next = st
	override, hasOverride := opt.Override()

	switch step {
	case domain.StepStartingDisclaimer:
		next.CurrentStep = domain.StepUserTypes
		if hasOverride {
			next.CurrentStep = override
		}

	case domain.StepUserTypes:
		next.UserType = opt.ID
		next.CurrentStep = domain.StepConcernCategories

	case domain.StepConcernCategories:
		next.ConcernCategory = opt.ID
		next.Question = ""
		next.CurrentStep = domain.StepTopQuestions

	case domain.StepTopQuestions:
		if opt.ID == domain.CategorySomethingElse {
			next.ConcernCategory = domain.CategorySomethingElse
			next.Question = ""
			next.CurrentStep = domain.StepTopQuestions
			return next, false, nil
		}
		if next.ConcernCategory == "" {
			next.ConcernCategory = opt.ID
		}
		next.Question = opt.OptionValue
		next.CurrentStep = domain.StepQueryAnswer
		if hasOverride {
			next.CurrentStep = override
		}

	case domain.StepQueryAnswer, domain.StepHumanSupport:
		target := domain.StepQueryAnswer
		switch {
		case hasOverride:
			target = override
		case opt.ID == domain.OptionAskAnother:
			target = domain.StepConcernCategories
		case opt.ID == domain.OptionHumanSupport:
			target = domain.StepHumanSupport
		case opt.ID == domain.OptionEndChat:
			target = domain.StepRating
		}
		if target == domain.StepConcernCategories {
			return st, true, nil
		}
		if target == domain.StepQueryAnswer && !isRoutingOption(opt.ID) {
			next.Question = opt.OptionValue
		}
		next.CurrentStep = target

	default:
		return st, false, fmt.Errorf("%w: options at %q", ErrActionUnavailable, step)
	}
	return next, false, nil
}

// confirmOption resuelve la confirmacion de "otra pregunta": solo yes o no.
func confirmOption(st domain.ConversationState, opt domain.Option) (domain.ConversationState, error) {
	next := st
	switch opt.ID {
	case domain.OptionConfirmYes:
		next.ConcernCategory = ""
		next.Question = ""
		next.CurrentStep = domain.StepConcernCategories
	case domain.OptionConfirmNo:
		next.CurrentStep = domain.StepRating
	default:
		return st, ErrInvalidConfirmation
	}
	next.AskAnotherConfirmation = false
	return next, nil
}

// submitText entra (o re-entra) al paso de Q&A con el texto como pregunta.
func submitText(st domain.ConversationState, text string) (domain.ConversationState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return st, ErrEmptyText
	}
	next := st
	next.Question = text
	next.CurrentStep = domain.StepQueryAnswer
	return next, nil
}

func isRoutingOption(id string) bool {
	switch id {
	case domain.OptionAskAnother, domain.OptionHumanSupport, domain.OptionEndChat:
		return true
	}
	return false
}

// feedbackDisplay arma el texto legible de la calificacion enviada.
func feedbackDisplay(in domain.RatingSubmission, choice *domain.Option) string {
	parts := []string{fmt.Sprintf("%d/5", in.Rating)}
	if choice != nil && choice.OptionValue != "" {
		parts = append(parts, choice.OptionValue)
	}
	if text := strings.TrimSpace(in.FeedbackText); text != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, " - ")
}
