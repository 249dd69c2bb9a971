package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// GlamourConverter convierte el markdown del bot con glamour.
type GlamourConverter struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
}

// NewGlamourConverter usa el estilo automatico de la terminal. Con style != "" se fuerza
// un estilo estandar de glamour ("notty" para salidas que no son una terminal).
func NewGlamourConverter(width int, style string) (*GlamourConverter, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &GlamourConverter{renderer: renderer}, nil
}

func (c *GlamourConverter) Convert(text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.renderer.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
