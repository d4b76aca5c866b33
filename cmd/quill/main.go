package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/quillai/quill/agent/terminal"
	"github.com/quillai/quill/config"
	"github.com/quillai/quill/credentials"
	"github.com/quillai/quill/llm"
	"github.com/quillai/quill/session"
	"github.com/quillai/quill/tools"
)

func main() {
	// Subcommands are handled before flag parsing; everything else is flags.
	if len(os.Args) > 1 && os.Args[1] == "auth" {
		if err := runAuth(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
			os.Exit(1)
		}
		return
	}

	toolsetFlag := flag.String("t", "", "Toolset to use (defaults to 'default')")
	llmFlag := flag.String("llm", "", "Provider override: openai, anthropic, gemini, ollama or bedrock")
	modelFlag := flag.String("model", "", "Model name override")
	freshFlag := flag.Bool("fresh", false, "Start a fresh session instead of resuming the project one")
	autoFlag := flag.Bool("auto", false, "Execute destructive tools without asking for confirmation")
	toolVerbosityFlag := flag.String("tool-verbosity", "none", "Tool verbosity level: 'none', 'info', or 'all'")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *llmFlag != "" {
		cfg.LLMClient = *llmFlag
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}

	var verbosity terminal.Verbosity
	switch *toolVerbosityFlag {
	case "none":
		verbosity = terminal.VerbosityNone
	case "info":
		verbosity = terminal.VerbosityInfo
	case "all":
		verbosity = terminal.VerbosityAll
	default:
		fmt.Fprintf(os.Stderr, "Invalid tool verbosity '%s'. Must be 'none', 'info', or 'all'.\n", *toolVerbosityFlag)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving working directory: %+v\n", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %+v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	project := session.ProjectID(wd)
	var sess *session.Session
	if *freshFlag {
		sess = session.New(project, store)
		fmt.Printf("Starting new session: %s\n", project)
	} else {
		sess, err = session.Resume(project, store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming session '%s': %+v\n", project, err)
			os.Exit(1)
		}
		if len(sess.Messages) > 0 {
			fmt.Printf("Resuming session: %s\n", project)
		} else {
			fmt.Printf("Starting new session: %s\n", project)
		}
	}

	client, err := buildClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s client: %+v\n", cfg.LLMClient, err)
		os.Exit(1)
	}

	registry := tools.NewRegistry(cfg)
	defer registry.Close()

	ts, err := cfg.GetToolset(*toolsetFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving toolset: %+v\n", err)
		os.Exit(1)
	}
	inst, err := registry.Instruction(tools.DefaultPrompt, ts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building toolset: %+v\n", err)
		os.Exit(1)
	}

	initialPrompt := strings.Join(flag.Args(), " ")

	fmt.Println("Quill is ready. Type your prompt.")
	term := terminal.New(cfg, sess, client, inst, wd)
	term.Verbosity = verbosity
	term.AutoApprove = *autoFlag
	if err := term.Run(ctx, initialPrompt); err != nil {
		fmt.Fprintf(os.Stderr, "Quill stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

// openStore selects the session backend. The returned close func is a no-op
// for the file backend.
func openStore(cfg *config.Config) (session.Store, func(), error) {
	dir, err := config.StateDir()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.SessionBackend {
	case "sqlite":
		store, err := session.NewSQLiteStore(filepath.Join(dir, "sessions.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := session.NewFileStore(filepath.Join(dir, "sessions"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// buildClient resolves credentials and constructs the configured provider
// client. Ollama needs no key; Bedrock authenticates through the AWS SDK.
func buildClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMClient {
	case "openai", "":
		apiKey, err := credentials.Resolve("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = credentials.ResolveOptional("OPENAI_BASE_URL")
		}
		return llm.NewOpenAIClient(apiKey, baseURL, cfg.Model)
	case "anthropic":
		apiKey, err := credentials.Resolve("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewAnthropicClient(apiKey, cfg.Model)
	case "gemini":
		apiKey, err := credentials.Resolve("GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiClient(ctx, apiKey, cfg.Model)
	case "ollama":
		return llm.NewOllamaClient(cfg.BaseURL, cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMClient)
	}
}

// runAuth implements `quill auth set <NAME>` and `quill auth rm <NAME>`. The
// secret is read from stdin so it never lands in shell history.
func runAuth(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: quill auth <set|rm> <NAME>")
	}
	name := args[1]

	switch args[0] {
	case "set":
		fmt.Printf("Enter value for %s: ", name)
		reader := bufio.NewReader(os.Stdin)
		value, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		if err := credentials.Store(name, value); err != nil {
			return err
		}
		fmt.Printf("Stored %s in the system keyring.\n", name)
		return nil
	case "rm":
		if err := credentials.Delete(name); err != nil {
			return err
		}
		fmt.Printf("Removed %s from the system keyring.\n", name)
		return nil
	default:
		return fmt.Errorf("unknown auth command %q", args[0])
	}
}
