package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"support-widget/internal/domain"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// Terminal dibuja la conversacion en una terminal ANSI.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) AppendMessage(msg domain.Message, markup string) {
	if strings.TrimSpace(markup) == "" {
		return
	}
	if msg.IsBot {
		t.printf("\n%s┌─ Support · %s%s\n", colorGray, msg.Timestamp.Local().Format("15:04:05"), colorReset)
		for _, line := range strings.Split(markup, "\n") {
			t.printf("%s│%s %s\n", colorGray, colorReset, line)
		}
		t.printf("%s└%s\n", colorGray, colorReset)
		return
	}
	t.printf("\n%s%s❯ %s%s\n", colorBold, colorGreen, markup, colorReset)
}

// AppendOptionSet numera las opciones en orden; los numeros son los que acepta el CLI.
func (t *Terminal) AppendOptionSet(set domain.OptionSet) {
	if set.Disabled {
		return
	}
	n := 1
	for _, group := range domain.GroupOptions(set.Options) {
		if group.Label != "" {
			t.printf("  %s%s%s\n", colorBold, group.Label, colorReset)
		}
		for _, opt := range group.Options {
			t.printf("  %s[%d]%s %s\n", colorCyan, n, colorReset, opt.OptionValue)
			n++
		}
	}
}

func (t *Terminal) AppendRating(widget domain.RatingWidget) {
	if widget.Submitted != nil {
		t.printf("  %sRated %d/5%s\n", colorDim, widget.Submitted.Rating, colorReset)
		return
	}
	if widget.Disabled {
		return
	}
	if widget.Message != "" {
		t.printf("  %s%s%s\n", colorBold, widget.Message, colorReset)
	}
	t.printf("  %sRate 1-5 with /rate <n> [feedback-id] [comment]%s\n", colorGray, colorReset)
	for _, opt := range widget.FeedbackOptions {
		t.printf("    %s%s%s  %s\n", colorCyan, opt.ID, colorReset, opt.OptionValue)
	}
}

func (t *Terminal) DisableOptionSet(string) {}
func (t *Terminal) EnableOptionSet(string)  {}

func (t *Terminal) DisableRating(string) {}

func (t *Terminal) EnableRating(string) {
	t.printf("  %sRating is available again%s\n", colorGray, colorReset)
}

func (t *Terminal) SetFooter(footer domain.Footer) {
	switch footer.Kind {
	case domain.FooterStartChat:
		t.printf("%sType /start to begin.%s\n", colorGray, colorReset)
		if footer.PrivacyURL != "" || footer.TermsURL != "" {
			t.printf("%sPrivacy: %s  Terms: %s%s\n", colorDim, footer.PrivacyURL, footer.TermsURL, colorReset)
		}
	case domain.FooterTextInput:
		t.printf("%sType your question, or pick a number.%s\n", colorGray, colorReset)
	case domain.FooterSelectOption:
		t.printf("%sSelect an option.%s\n", colorGray, colorReset)
	case domain.FooterStartOver:
		t.printf("%sType /reset to start over.%s\n", colorGray, colorReset)
	}
}

func (t *Terminal) SetTyping(on bool) {
	if on {
		t.printf("%s…%s\n", colorDim, colorReset)
	}
}

func (t *Terminal) ShowError(text string) {
	t.printf("%s%s%s\n", colorRed, text, colorReset)
}

func (t *Terminal) Clear() {
	t.printf("\033[2J\033[H")
}
