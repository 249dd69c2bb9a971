package domain

// Option es un boton de accion adjunto a un mensaje del bot.
type Option struct {
	ID          string `json:"id"`
	OptionValue string `json:"option_value"`
	NextStep    *Step  `json:"next_step,omitempty"`
	Label       string `json:"label,omitempty"`
}

// Override devuelve el paso forzado por el backend para esta opcion, si existe.
func (o Option) Override() (Step, bool) {
	if o.NextStep == nil || *o.NextStep == "" {
		return "", false
	}
	return *o.NextStep, true
}

// OptionGroup agrupa opciones consecutivas con la misma etiqueta.
type OptionGroup struct {
	Label   string
	Options []Option
}

// GroupOptions agrupa opciones consecutivas que comparten label, preservando el orden.
func GroupOptions(options []Option) []OptionGroup {
	var groups []OptionGroup
	for _, opt := range options {
		if n := len(groups); n > 0 && groups[n-1].Label == opt.Label {
			groups[n-1].Options = append(groups[n-1].Options, opt)
			continue
		}
		groups = append(groups, OptionGroup{Label: opt.Label, Options: []Option{opt}})
	}
	return groups
}

// StepPtr es un atajo para construir overrides.
func StepPtr(s Step) *Step {
	return &s
}
