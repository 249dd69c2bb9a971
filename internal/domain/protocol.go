package domain

import "strings"

// Request es el cuerpo enviado al backend en cada turno.
type Request struct {
	Step            Step   `json:"step"`
	SessionID       string `json:"session_id"`
	UserType        string `json:"user_type,omitempty"`
	ConcernCategory string `json:"concern_category,omitempty"`
	Question        string `json:"question,omitempty"`
	Locale          string `json:"locale,omitempty"`

	// Solo para el envio de la calificacion.
	UserRating     *int   `json:"user_rating,omitempty"`
	FeedbackOption string `json:"feedback_option,omitempty"`
	FeedbackText   string `json:"feedback_text,omitempty"`
	UserFeedback   string `json:"user_feedback,omitempty"`
}

// IsRatingSubmission reporta si el request transporta una calificacion.
func (r Request) IsRatingSubmission() bool {
	return r.Step == StepRating && r.UserRating != nil
}

// Response es la respuesta normalizada del backend.
type Response struct {
	SessionID        string   `json:"session_id"`
	Step             Step     `json:"step"`
	Message          string   `json:"message"`
	Answer           string   `json:"answer"`
	Options          []Option `json:"options"`
	FeedbackOptions  []Option `json:"feedback_options"`
	TextInputEnabled *bool    `json:"text_input_enabled"`
	RatingMessage    string   `json:"rating_message"`
	Locale           string   `json:"locale"`
	PrivacyURL       string   `json:"privacy_url"`
	TermsURL         string   `json:"terms_url"`
	Disclaimer       string   `json:"disclaimer"`
}

// DisplayText junta los textos visibles de la respuesta en orden.
func (r Response) DisplayText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Message, r.Answer, r.Disclaimer} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FeedbackChoices devuelve las opciones de feedback del paso de calificacion.
// En ese paso el backend reutiliza "options" como opciones de feedback.
func (r Response) FeedbackChoices(step Step) []Option {
	if len(r.FeedbackOptions) > 0 {
		return r.FeedbackOptions
	}
	if step == StepRating {
		return r.Options
	}
	return nil
}
