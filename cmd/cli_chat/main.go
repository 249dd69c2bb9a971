package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"support-widget/internal/backend"
	"support-widget/internal/bootstrap"
	"support-widget/internal/config"
	"support-widget/internal/domain"
	"support-widget/internal/render"
	"support-widget/internal/repository"
	"support-widget/internal/service"
)

func main() {
	verbose := flag.Bool("verbose", false, "muestra logs de diagnostico")
	contextID := flag.String("context", "cli", "id del contexto de navegacion simulado")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if *verbose {
		logger = zap.NewExample()
	}
	defer logger.Sync()

	res, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer res.Close()

	scopes := repository.NewScopeFactory(cfg, res.Backends)
	if err := scopes.EnsureSchema(ctx); err != nil {
		log.Fatalf("preparar almacenamiento: %v", err)
	}
	ephemeral, err := scopes.Ephemeral(*contextID)
	if err != nil {
		log.Fatal(err)
	}
	durable, err := scopes.Durable()
	if err != nil {
		log.Fatal(err)
	}

	// Fuera de una terminal (pipes, CI) glamour no debe emitir colores.
	width, style := 80, "notty"
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		style = ""
		if w, _, err := term.GetSize(fd); err == nil && w > 20 {
			width = w - 4
		}
	}
	markdown, err := render.NewGlamourConverter(width, style)
	if err != nil {
		log.Fatalf("markdown: %v", err)
	}

	w, err := service.NewWidget(service.WidgetOptions{
		ContextID:        *contextID,
		Endpoint:         cfg.BackendURL,
		BackendTimeout:   cfg.BackendTimeout,
		Store:            repository.NewWidgetStore(ephemeral, durable, logger, cfg.MaxMessages),
		Renderer:         render.NewTerminal(os.Stdout),
		Markdown:         markdown,
		Cue:              render.NewBell(os.Stdout),
		Logger:           logger,
		AcceptLocaleEcho: cfg.AcceptLocaleEcho,
		MaxMessages:      cfg.MaxMessages,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	page := domain.PageContext{URL: cfg.PageURL, DeclaredLanguage: cfg.PageLanguage}
	restored, err := w.Open(ctx, page)
	if err != nil && !isBackendErr(err) {
		log.Fatal(err)
	}
	if restored {
		fmt.Println("(conversacion restaurada)")
	}
	fmt.Println("Escribe /help para ver los comandos.")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			log.Fatalf("leer input: %v", err)
		}
		if ctx.Err() != nil {
			return
		}

		snap := w.Snapshot()
		cmd, err := parseCommand(line, feedbackLookup(snap.View))
		if err != nil {
			fmt.Println(err)
			continue
		}
		if cmd.kind == cmdExit {
			return
		}
		if err := run(ctx, w, snap, cmd); err != nil && !isBackendErr(err) {
			fmt.Printf("! %v\n", err)
		}
	}
}

func run(ctx context.Context, w *service.Widget, snap service.Snapshot, cmd command) error {
	switch cmd.kind {
	case cmdStart:
		return w.StartChat(ctx)
	case cmdReset:
		return w.Reset(ctx)
	case cmdRate:
		return w.SubmitRating(ctx, cmd.rating)
	case cmdHelp:
		fmt.Println(helpText)
		return nil
	case cmdState:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case cmdPick:
		if set, ok := snap.View.LiveOptionSet(); ok {
			if cmd.number > len(set.Options) {
				return fmt.Errorf("opcion %d fuera de rango (1-%d)", cmd.number, len(set.Options))
			}
			return w.SelectOption(ctx, set.ID, set.Options[cmd.number-1].ID)
		}
	}
	if cmd.text == "" {
		return nil
	}
	return w.SubmitText(ctx, cmd.text)
}

func feedbackLookup(view domain.View) func(string) bool {
	rating, ok := view.LiveRating()
	if !ok {
		return nil
	}
	return func(id string) bool {
		for _, opt := range rating.FeedbackOptions {
			if opt.ID == id {
				return true
			}
		}
		return false
	}
}

// Los errores del backend ya se muestran en la conversacion.
func isBackendErr(err error) bool {
	return backend.IsTransport(err) || backend.IsProtocol(err)
}
