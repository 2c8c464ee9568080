package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/AVoss84/invoice-agent-app/internal/currency"
	"github.com/AVoss84/invoice-agent-app/internal/document"
	"github.com/AVoss84/invoice-agent-app/internal/history"
	"github.com/AVoss84/invoice-agent-app/internal/invoice"
	"github.com/AVoss84/invoice-agent-app/internal/llm"
	"github.com/AVoss84/invoice-agent-app/internal/report"
	"github.com/AVoss84/invoice-agent-app/internal/workflow"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-agent")
	var (
		llmBackend  = fs.StringLong("llm", "gemini", "Model backend: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set INVOICE_AGENT_GEMINI_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.0-flash-001", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llama3", "Ollama model name (e.g., llama3, mistral)")
		typesPath   = fs.StringLong("types", "", "Invoice type registry YAML (defaults to the built-in registry)")
		template    = fs.StringLong("template", "", "Travel expense template workbook to fill (optional)")
		output      = fs.StringLong("output", "Travel Expense Edt.xlsx", "Output workbook path")
		sheet       = fs.StringLong("sheet", "", "Worksheet name in the template")
		traveler    = fs.StringLong("traveler", "", "Traveler last/first name")
		location    = fs.StringLong("location", "", "Home location")
		destination = fs.StringLong("destination", "", "Trip destination")
		costCenter  = fs.StringLong("cost-center", "", "Cost center")
		reason      = fs.StringLong("reason", "", "Reason for travel")
		dbPath      = fs.StringLong("db", "invoice-agent.db", "Batch history database path (empty to disable)")
		archiveDir  = fs.StringLong("archive", "", "Directory to archive batch inputs into (empty to disable)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_AGENT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	files := fs.GetArgs()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: at least one invoice file is required")
		os.Exit(1)
	}

	// Invoice type registry
	cfg := invoice.DefaultConfig()
	if *typesPath != "" {
		var err error
		cfg, err = invoice.LoadConfig(*typesPath)
		if err != nil {
			slog.Error("Failed to load invoice type registry", "error", err)
			os.Exit(1)
		}
	}

	// Model backend
	var client llm.Client
	var err error
	switch *llmBackend {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini client...", "model", *geminiModel)
		client, err = llm.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama client...", "url", *ollamaURL, "model", *ollamaModel)
		client, err = llm.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid model backend", "backend", *llmBackend, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer client.Close()

	// Report writer, only when a template is given
	var reporter workflow.Reporter
	if *template != "" {
		metadata := report.TripMetadata{
			TravelerName: *traveler,
			Location:     *location,
			Destination:  *destination,
			CostCenter:   *costCenter,
			Reason:       *reason,
		}
		reporter = report.NewWriter(slog.Default(), *template, *output, *sheet, metadata)
	}

	engine := workflow.NewEngine(
		slog.Default(),
		document.NewFileConverter(slog.Default()),
		invoice.NewClassifier(slog.Default(), client, cfg),
		invoice.NewExtractor(slog.Default(), client, cfg),
		currency.NewConverter(slog.Default()),
		workflow.NewLLMSummarizer(slog.Default(), client),
		reporter,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := engine.Run(ctx, files)
	if err != nil {
		slog.Error("Batch failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(state.Summary)

	if *dbPath != "" {
		if err := saveHistory(*dbPath, *archiveDir, files, state); err != nil {
			slog.Error("Failed to record batch history", "error", err)
			os.Exit(1)
		}
	}
}

// saveHistory records the finished batch and optionally archives its
// input files
func saveHistory(dbPath string, archiveDir string, files []string, state *workflow.BatchState) error {
	store, err := history.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	run := &history.Run{
		ID:            history.NewRunID(),
		CreatedAt:     time.Now(),
		Files:         files,
		Entities:      state.Entities(),
		InferredTypes: state.InferredTypes(),
		Summary:       state.Summary,
		RateInfo:      state.RateInfo,
	}

	if err := store.SaveRun(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if archiveDir != "" {
		archive, err := history.NewArchive(archiveDir)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		if _, err := archive.Store(run.ID, files); err != nil {
			return fmt.Errorf("archiving inputs: %w", err)
		}
	}

	slog.Info("Batch recorded", "run_id", run.ID, "entities", len(run.Entities))
	return nil
}
