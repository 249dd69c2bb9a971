package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Step identifica una etapa del dialogo definida por el backend.
type Step string

const (
	StepStartingDisclaimer Step = "send_ai_starting_disclaimer"
	StepUserTypes          Step = "send_user_types"
	StepConcernCategories  Step = "send_concern_categories"
	StepTopQuestions       Step = "send_top_questions"
	StepQueryAnswer        Step = "send_query_answer"
	StepHumanSupport       Step = "redirect_to_human_support"
	StepRating             Step = "send_rating"
	StepAIDisclaimer       Step = "send_ai_disclaimer"
)

// CategorySomethingElse es la categoria centinela que pide pasar a texto libre.
const CategorySomethingElse = "something_else"

// Ids de opciones con ruta conocida en los pasos de Q&A y soporte humano.
const (
	OptionAskAnother   = "ask_another_question"
	OptionHumanSupport = "talk_to_human"
	OptionEndChat      = "end_chat"
	OptionConfirmYes   = "yes"
	OptionConfirmNo    = "no"
)

var ErrUnknownStep = errors.New("unknown step")

var knownSteps = map[Step]struct{}{
	StepStartingDisclaimer: {},
	StepUserTypes:          {},
	StepConcernCategories:  {},
	StepTopQuestions:       {},
	StepQueryAnswer:        {},
	StepHumanSupport:       {},
	StepRating:             {},
	StepAIDisclaimer:       {},
}

// Valid indica si el paso pertenece al vocabulario cerrado.
func (s Step) Valid() bool {
	_, ok := knownSteps[s]
	return ok
}

func (s Step) String() string {
	return string(s)
}

// IsTerminal reporta el paso final tras la calificacion.
func (s Step) IsTerminal() bool {
	return s == StepAIDisclaimer
}

// ParseStep valida un identificador crudo. La cadena vacia significa "sin paso".
func ParseStep(raw string) (Step, error) {
	if raw == "" {
		return "", nil
	}
	s := Step(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, raw)
	}
	return s, nil
}

func (s *Step) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode step: %w", err)
	}
	parsed, err := ParseStep(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
