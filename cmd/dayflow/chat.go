package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dayflow/internal/assistant"
	"dayflow/internal/config"
	"dayflow/internal/logging"
	"dayflow/internal/perception"
	"dayflow/internal/prompt"
	"dayflow/internal/speech"
	"dayflow/internal/store"
	"dayflow/internal/voice"
)

// runChat hosts the interactive REPL around the assistant core.
func runChat() error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if page != "" {
		cfg.Page = page
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := logging.Initialize(cfg.StateDir, logging.Settings{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.CloseAll()
	logging.Boot("dayflow starting, page=%s provider=%s store=%s", cfg.Page, cfg.LLM.Provider, cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.NewKV(cfg.Store, cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer kv.Close()

	gateway, err := perception.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	b := newBoard(ctx, kv)
	history := store.NewHistory(kv, cfg.Store.HistoryKey)
	asst := assistant.New(gateway, history, prompt.NewBuilder(cfg.Page), b.callbacks())
	asst.Load(ctx)

	fmt.Printf("dayflow %s on the %s page (%s)\n", cfg.Version, cfg.Page, b.summary())
	fmt.Println("Type a message, or /help for commands.")
	for _, m := range asst.Messages() {
		printMessage(m.Role, m.Content)
	}

	voiceCtl, voiceLines := buildVoiceLoop(ctx, cfg, asst, b)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if voiceCtl != nil && voiceCtl.Active() {
			fmt.Print("(voice) ")
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, line, asst, b, voiceCtl, cfg); quit {
				break
			}
			continue
		}

		// In voice mode typed lines stand in for dictated transcripts and
		// flow through the loop controller instead of a direct send.
		if voiceCtl != nil && voiceCtl.Active() {
			select {
			case voiceLines <- line:
			case <-ctx.Done():
			}
			continue
		}

		sendAndPrint(ctx, asst, b, line)
	}

	if voiceCtl != nil {
		voiceCtl.Stop()
	}
	fmt.Println("bye")
	return nil
}

func sendAndPrint(ctx context.Context, asst *assistant.Assistant, b *board, text string) {
	reply, err := asst.Send(ctx, text, b.snapshot())
	if err != nil {
		if errors.Is(err, assistant.ErrTurnInFlight) {
			fmt.Println("(still thinking about the previous message)")
			return
		}
		fmt.Println("error:", err)
		return
	}
	printMessage(reply.Role, reply.Content)
}

func handleCommand(ctx context.Context, line string, asst *assistant.Assistant, b *board, voiceCtl *voice.Controller, cfg *config.Config) (quit bool) {
	switch line {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := asst.ClearHistory(ctx); err != nil {
			fmt.Println("error clearing history:", err)
		} else {
			fmt.Println("conversation cleared")
		}
	case "/voice":
		switch {
		case voiceCtl == nil:
			fmt.Println("voice mode is disabled (set speech.enabled in", config.DefaultPath()+")")
		case voiceCtl.Active():
			voiceCtl.Stop()
			fmt.Println("voice mode off")
		default:
			if err := voiceCtl.Start(); err != nil {
				fmt.Println("failed to start voice mode:", err)
			} else {
				fmt.Println("voice mode on: typed lines are dispatched as transcripts")
			}
		}
	case "/status":
		fmt.Printf("page=%s, %s, %d messages\n", cfg.Page, b.summary(), len(asst.Messages()))
	case "/help":
		fmt.Println("/clear   wipe the conversation history")
		fmt.Println("/voice   toggle the voice loop")
		fmt.Println("/status  show page, entity counts, message count")
		fmt.Println("/quit    exit")
	default:
		fmt.Println("unknown command:", line)
	}
	return false
}

// buildVoiceLoop wires the voice controller when speech is enabled. The
// terminal host has no microphone or speaker: dictation is simulated by
// typed lines, and synthesized audio is written next to the logs.
func buildVoiceLoop(ctx context.Context, cfg *config.Config, asst *assistant.Assistant, b *board) (*voice.Controller, chan string) {
	if !cfg.Speech.Enabled {
		return nil, nil
	}

	synth, err := speech.NewGenAISynthesizer(ctx, cfg.LLM.APIKey, cfg.Speech.Model)
	if err != nil {
		fmt.Println("voice mode unavailable:", err)
		return nil, nil
	}

	lines := make(chan string)
	rec := &promptRecognizer{lines: lines}
	player := &filePlayer{dir: cfg.StateDir}

	dispatch := func(ctx context.Context, transcript string) (string, error) {
		printMessage("user", transcript)
		reply, err := asst.Send(ctx, transcript, b.snapshot())
		if err != nil {
			return "", err
		}
		printMessage(reply.Role, reply.Content)
		return reply.Content, nil
	}

	ctl := voice.NewController(rec, synth, player, dispatch, voice.Options{
		Voice:       cfg.Speech.Voice,
		ResumeDelay: cfg.Speech.ResumeDelayDuration(),
		Events: voice.Events{
			OnSystemMessage: func(text string) { fmt.Println("[voice]", text) },
		},
	})
	return ctl, lines
}

func printMessage(role, content string) {
	fmt.Printf("%s: %s\n", role, content)
}

// promptRecognizer adapts typed input to the Recognizer interface: each
// line sent on the channel becomes one final transcript.
type promptRecognizer struct {
	lines chan string
}

type promptSession struct {
	cancel context.CancelFunc
}

func (r *promptRecognizer) Start(ctx context.Context, cb speech.RecognitionCallbacks) (speech.Session, error) {
	sctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case line := <-r.lines:
			if cb.OnFinal != nil {
				cb.OnFinal(line)
			}
		case <-sctx.Done():
		}
	}()
	return &promptSession{cancel: cancel}, nil
}

func (s *promptSession) Stop() { s.cancel() }

// filePlayer writes synthesized audio beside the logs instead of playing
// it; the terminal has no audio device.
type filePlayer struct {
	dir string
}

func (p *filePlayer) Play(_ context.Context, audio []byte) error {
	name := filepath.Join(p.dir, fmt.Sprintf("speech-%d.pcm", time.Now().UnixNano()))
	if err := os.WriteFile(name, audio, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	fmt.Println("[voice] audio written to", name)
	return nil
}
