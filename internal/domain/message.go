package domain

import "time"

// MessageLogVersion es la version actual del esquema persistido.
const MessageLogVersion = 1

// Message es la unidad persistida del historial de un widget.
type Message struct {
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	Step      Step      `json:"step,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId,omitempty"`

	// Copia del estado al momento del mensaje, usada por la restauracion.
	UserType        string `json:"userType,omitempty"`
	ConcernCategory string `json:"concernCategory,omitempty"`
	Question        string `json:"question,omitempty"`
	Locale          string `json:"locale,omitempty"`

	Options         []Option          `json:"options,omitempty"`
	FeedbackOptions []Option          `json:"feedbackOptions,omitempty"`
	RatingMessage   string            `json:"ratingMessage,omitempty"`
	Rating          *RatingSubmission `json:"rating,omitempty"`

	InputMode    FooterKind `json:"inputMode,omitempty"`
	PrivacyURL   string     `json:"privacyUrl,omitempty"`
	TermsURL     string     `json:"termsUrl,omitempty"`
	Confirmation bool       `json:"confirmation,omitempty"`
}

// IsRatingMessage reporta si el mensaje debe reconstruir el widget de calificacion.
func (m Message) IsRatingMessage() bool {
	return m.IsBot && m.Step == StepRating && (len(m.FeedbackOptions) > 0 || m.RatingMessage != "")
}

// RatingSubmission guarda la calificacion enviada por el usuario.
type RatingSubmission struct {
	Rating         int    `json:"rating"`
	FeedbackOption string `json:"feedbackOption,omitempty"`
	FeedbackText   string `json:"feedbackText,omitempty"`
}

// MessageLog es el sobre versionado que se guarda en el scope durable.
type MessageLog struct {
	Version  int       `json:"version"`
	Messages []Message `json:"messages"`
}
