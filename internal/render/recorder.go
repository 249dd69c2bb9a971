package render

import (
	"sync"

	"support-widget/internal/domain"
)

type Op string

const (
	OpAppendMessage    Op = "append_message"
	OpAppendOptionSet  Op = "append_option_set"
	OpAppendRating     Op = "append_rating"
	OpDisableOptionSet Op = "disable_option_set"
	OpEnableOptionSet  Op = "enable_option_set"
	OpDisableRating    Op = "disable_rating"
	OpEnableRating     Op = "enable_rating"
	OpSetFooter        Op = "set_footer"
	OpSetTyping        Op = "set_typing"
	OpShowError        Op = "show_error"
	OpClear            Op = "clear"
)

// Instruction es una instruccion de render serializable para un cliente remoto.
type Instruction struct {
	Op        Op                   `json:"op"`
	ID        string               `json:"id,omitempty"`
	Message   *domain.Message      `json:"message,omitempty"`
	Markup    string               `json:"markup,omitempty"`
	OptionSet *domain.OptionSet    `json:"option_set,omitempty"`
	Groups    []domain.OptionGroup `json:"groups,omitempty"`
	Rating    *domain.RatingWidget `json:"rating,omitempty"`
	Footer    *domain.Footer       `json:"footer,omitempty"`
	Text      string               `json:"text,omitempty"`
	On        *bool                `json:"on,omitempty"`
}

// Recorder acumula instrucciones hasta que alguien las drena y, ademas, las reenvia
// en vivo a los suscriptores.
type Recorder struct {
	mu           sync.Mutex
	instructions []Instruction
	subscribers  map[int]chan Instruction
	nextSub      int
}

func NewRecorder() *Recorder {
	return &Recorder{subscribers: make(map[int]chan Instruction)}
}

// Subscribe devuelve un canal con las instrucciones nuevas. Si el suscriptor no lee a
// tiempo, las instrucciones que no entran en el buffer se descartan para el.
// La funcion devuelta cancela la suscripcion y cierra el canal.
func (r *Recorder) Subscribe(buffer int) (<-chan Instruction, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Instruction, buffer)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Drain devuelve las instrucciones acumuladas y vacia el buffer.
func (r *Recorder) Drain() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.instructions
	r.instructions = nil
	if out == nil {
		out = []Instruction{}
	}
	return out
}

func (r *Recorder) record(in Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = append(r.instructions, in)
	for _, ch := range r.subscribers {
		select {
		case ch <- in:
		default:
		}
	}
}

func (r *Recorder) AppendMessage(msg domain.Message, markup string) {
	r.record(Instruction{Op: OpAppendMessage, Message: &msg, Markup: markup})
}

func (r *Recorder) AppendOptionSet(set domain.OptionSet) {
	r.record(Instruction{Op: OpAppendOptionSet, ID: set.ID, OptionSet: &set, Groups: domain.GroupOptions(set.Options)})
}

func (r *Recorder) AppendRating(widget domain.RatingWidget) {
	r.record(Instruction{Op: OpAppendRating, ID: widget.ID, Rating: &widget})
}

func (r *Recorder) DisableOptionSet(id string) {
	r.record(Instruction{Op: OpDisableOptionSet, ID: id})
}

func (r *Recorder) EnableOptionSet(id string) {
	r.record(Instruction{Op: OpEnableOptionSet, ID: id})
}

func (r *Recorder) DisableRating(id string) {
	r.record(Instruction{Op: OpDisableRating, ID: id})
}

func (r *Recorder) EnableRating(id string) {
	r.record(Instruction{Op: OpEnableRating, ID: id})
}

func (r *Recorder) SetFooter(footer domain.Footer) {
	r.record(Instruction{Op: OpSetFooter, Footer: &footer})
}

func (r *Recorder) SetTyping(on bool) {
	r.record(Instruction{Op: OpSetTyping, On: &on})
}

func (r *Recorder) ShowError(text string) {
	r.record(Instruction{Op: OpShowError, Text: text})
}

func (r *Recorder) Clear() {
	r.record(Instruction{Op: OpClear})
}
