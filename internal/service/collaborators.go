package service

import (
	"context"

	"support-widget/internal/domain"
)

// Renderer recibe instrucciones de render; no decide nada sobre el flujo.
type Renderer interface {
	AppendMessage(msg domain.Message, markup string)
	AppendOptionSet(set domain.OptionSet)
	AppendRating(widget domain.RatingWidget)
	DisableOptionSet(id string)
	EnableOptionSet(id string)
	DisableRating(id string)
	EnableRating(id string)
	SetFooter(footer domain.Footer)
	SetTyping(on bool)
	ShowError(text string)
	Clear()
}

// MarkdownConverter transforma el texto del bot antes de mostrarlo.
type MarkdownConverter interface {
	Convert(text string) (string, error)
}

// AudioCue se dispara con cada mensaje del bot.
type AudioCue interface {
	Play()
}

// MessageStore es el almacenamiento del widget; sus fallos nunca llegan al caller.
type MessageStore interface {
	GetSessionID(ctx context.Context) string
	SaveSessionID(ctx context.Context, id string)
	ClearSessionID(ctx context.Context)
	AppendMessage(ctx context.Context, msg domain.Message)
	GetMessages(ctx context.Context) []domain.Message
	ClearMessages(ctx context.Context)
	AmendLastMessage(ctx context.Context, amend func(*domain.Message))
}

type plainMarkdown struct{}

func (plainMarkdown) Convert(text string) (string, error) { return text, nil }

type silentCue struct{}

func (silentCue) Play() {}
