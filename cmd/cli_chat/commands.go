package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"support-widget/internal/service"
)

type commandKind int

const (
	cmdText commandKind = iota
	cmdPick
	cmdStart
	cmdRate
	cmdReset
	cmdState
	cmdHelp
	cmdExit
)

type command struct {
	kind   commandKind
	text   string
	number int
	rating service.RatingInput
}

var errUsage = errors.New("uso: /rate <1-5> [feedback-id] [texto]")

// parseCommand interpreta una linea del usuario. isFeedback dice si un token es un id
// de feedback del widget de calificacion activo.
func parseCommand(line string, isFeedback func(string) bool) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		if n, err := strconv.Atoi(line); err == nil && n > 0 {
			return command{kind: cmdPick, number: n, text: line}, nil
		}
		return command{kind: cmdText, text: line}, nil
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/start":
		return command{kind: cmdStart}, nil
	case "/reset":
		return command{kind: cmdReset}, nil
	case "/state":
		return command{kind: cmdState}, nil
	case "/help":
		return command{kind: cmdHelp}, nil
	case "/exit", "/quit":
		return command{kind: cmdExit}, nil
	case "/rate":
		return parseRate(fields[1:], isFeedback)
	}
	return command{}, fmt.Errorf("comando desconocido %q (usa /help)", fields[0])
}

func parseRate(args []string, isFeedback func(string) bool) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}
	rating, err := strconv.Atoi(args[0])
	if err != nil {
		return command{}, errUsage
	}
	in := service.RatingInput{Rating: rating}
	rest := args[1:]
	if len(rest) > 0 && isFeedback != nil && isFeedback(rest[0]) {
		in.FeedbackOption = rest[0]
		rest = rest[1:]
	}
	in.FeedbackText = strings.Join(rest, " ")
	return command{kind: cmdRate, rating: in}, nil
}

const helpText = `Comandos:
  <numero>                       elige una opcion del set activo
  <texto>                        envia una pregunta cuando el chat lo permite
  /start                         inicia la conversacion
  /rate <1-5> [feedback] [texto] califica la conversacion
  /reset                         empieza de nuevo
  /state                         muestra el estado actual
  /exit                          salir`
