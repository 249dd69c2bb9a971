package domain

// ConversationState es el estado logico de una conversacion de widget.
// Es un valor: una copia es un snapshot.
type ConversationState struct {
	CurrentStep     Step   `json:"current_step,omitempty"`
	SessionID       string `json:"session_id"`
	UserType        string `json:"user_type,omitempty"`
	ConcernCategory string `json:"concern_category,omitempty"`
	Question        string `json:"question,omitempty"`
	Locale          string `json:"locale,omitempty"`

	AskAnotherConfirmation bool `json:"ask_another_confirmation"`
}

// Stamp copia en el mensaje los campos del estado que la restauracion necesita.
func (s ConversationState) Stamp(msg Message) Message {
	msg.SessionID = s.SessionID
	msg.UserType = s.UserType
	msg.ConcernCategory = s.ConcernCategory
	msg.Question = s.Question
	msg.Locale = s.Locale
	if msg.Step == "" {
		msg.Step = s.CurrentStep
	}
	return msg
}

// PageContext describe la pagina anfitriona de la que se deriva el locale.
type PageContext struct {
	URL              string `json:"page_url"`
	DeclaredLanguage string `json:"page_language"`
}
