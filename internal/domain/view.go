package domain

import "fmt"

// FooterKind es la affordance que se muestra debajo de la conversacion.
type FooterKind string

const (
	FooterNone         FooterKind = "none"
	FooterStartChat    FooterKind = "start_chat"
	FooterTextInput    FooterKind = "text_input"
	FooterSelectOption FooterKind = "select_option"
	FooterStartOver    FooterKind = "start_over"
)

type Footer struct {
	Kind       FooterKind `json:"kind"`
	PrivacyURL string     `json:"privacy_url,omitempty"`
	TermsURL   string     `json:"terms_url,omitempty"`
}

// OptionSet es un grupo de botones renderizado, etiquetado con el paso al que pertenece.
type OptionSet struct {
	ID           string   `json:"id"`
	Step         Step     `json:"step"`
	MessageIndex int      `json:"message_index"`
	Options      []Option `json:"options"`
	Disabled     bool     `json:"disabled"`
	Confirmation bool     `json:"confirmation,omitempty"`
}

// Find busca una opcion por id dentro del set.
func (s OptionSet) Find(optionID string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// RatingWidget es el sub-UI de calificacion y feedback.
type RatingWidget struct {
	ID              string            `json:"id"`
	MessageIndex    int               `json:"message_index"`
	Message         string            `json:"message,omitempty"`
	FeedbackOptions []Option          `json:"feedback_options,omitempty"`
	Disabled        bool              `json:"disabled"`
	Submitted       *RatingSubmission `json:"submitted,omitempty"`
}

// View es el modelo de UI que el motor mantiene independiente del render.
type View struct {
	Messages   []Message      `json:"messages"`
	OptionSets []OptionSet    `json:"option_sets"`
	Ratings    []RatingWidget `json:"ratings"`
	Footer     Footer         `json:"footer"`
}

// Clone devuelve una copia que no comparte slices con el original.
func (v View) Clone() View {
	out := View{Footer: v.Footer}
	out.Messages = append([]Message(nil), v.Messages...)
	out.OptionSets = make([]OptionSet, len(v.OptionSets))
	for i, set := range v.OptionSets {
		set.Options = append([]Option(nil), set.Options...)
		out.OptionSets[i] = set
	}
	out.Ratings = append([]RatingWidget(nil), v.Ratings...)
	return out
}

// DisabledOptionSetIDs lista los sets deshabilitados en orden de render.
func (v View) DisabledOptionSetIDs() []string {
	var ids []string
	for _, set := range v.OptionSets {
		if set.Disabled {
			ids = append(ids, set.ID)
		}
	}
	return ids
}

// LiveOptionSet devuelve el ultimo set habilitado, si existe.
func (v View) LiveOptionSet() (OptionSet, bool) {
	for i := len(v.OptionSets) - 1; i >= 0; i-- {
		if !v.OptionSets[i].Disabled {
			return v.OptionSets[i], true
		}
	}
	return OptionSet{}, false
}

// LiveRating devuelve el widget de calificacion aun activo, si existe.
func (v View) LiveRating() (RatingWidget, bool) {
	for i := len(v.Ratings) - 1; i >= 0; i-- {
		if !v.Ratings[i].Disabled {
			return v.Ratings[i], true
		}
	}
	return RatingWidget{}, false
}

func OptionSetID(messageIndex int) string {
	return fmt.Sprintf("opts-%d", messageIndex)
}

func RatingID(messageIndex int) string {
	return fmt.Sprintf("rating-%d", messageIndex)
}
