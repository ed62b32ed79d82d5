package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ragchat/internal/backend"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/i18n"
	"ragchat/internal/metrics"
	"ragchat/internal/service"
	"ragchat/internal/tui"
	"ragchat/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragchat/config.yaml if not provided)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: ragchat [--config=config.yaml] [upload file.pdf | ask question... | health]")
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	args := flag.Args()
	interactive := len(args) == 0

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = config.DefaultLogFile()
	}
	lg, err := logger.New(cfg.Log.Level, logFile)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen); err != nil {
				lg.Error("metrics server stopped", zap.String("listen", cfg.Metrics.Listen), zap.Error(err))
			}
		}()
	}

	locale := cfg.UI.Locale
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	texts := i18n.For(locale)

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		Logger:  lg,
		Metrics: m,
	})
	chat := service.NewConversationController(client, texts, lg, m)
	upload := service.NewUploadController(client, texts, lg)

	lg.Info("starting", zap.String("backend", cfg.Backend.BaseURL), zap.Bool("interactive", interactive))

	if interactive {
		model := tui.New(ctx, chat, upload, client, texts)
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Fatal(err)
		}
		return
	}

	if err := runCommand(ctx, args, chat, upload, client); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, chat *service.ConversationController, upload *service.UploadController, client *backend.Client) error {
	switch args[0] {
	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("usage: ragchat upload file.pdf")
		}
		upload.SelectFile(domain.File{Name: filepath.Base(args[1]), Path: args[1]})
		upload.Upload(ctx)
		st := upload.State()
		fmt.Println(st.StatusMessage)
		if st.Status != domain.UploadSuccess {
			return fmt.Errorf("upload %s: %s", st.Status, args[1])
		}
		return nil
	case "ask":
		chat.UpdateDraft(strings.Join(args[1:], " "))
		outcome := chat.Submit(ctx)
		if outcome == service.Ignored {
			return fmt.Errorf("usage: ragchat ask question")
		}
		msgs := chat.Messages()
		fmt.Println(msgs[len(msgs)-1].Text)
		if outcome == service.Fallback {
			return errors.New("no answer: backend request failed")
		}
		return nil
	case "health":
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("backend unhealthy: %w", err)
		}
		fmt.Println("ok")
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}
