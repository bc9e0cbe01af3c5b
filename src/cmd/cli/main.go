package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"offlinemind/src/config"
	"offlinemind/src/llm"
)

const (
	maxInputSizeKB = 64
	maxInputSize   = maxInputSizeKB * 1024
)

type cliOptions struct {
	text       string
	filePath   string
	jsonOutput bool
	verbose    bool
	language   string
	model      string
	url        string
}

// generator is the part of llm.Client the CLI needs.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"offlinemind-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "offlinemind-cli",
		Short:         "Explain text with the local inference server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Text to explain")
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Read the text from a file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.language, "language", "", "Target language (overrides DEFAULT_LANGUAGE)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (overrides MODEL)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Inference server base URL (overrides OLLAMA_URL)")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func runWithOptions(opts cliOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(stderr)
		fmt.Fprintf(stderr, "[verbose] Starting offlinemind-cli\n")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		BaseURLOverride:  opts.url,
		ModelOverride:    opts.model,
		LanguageOverride: opts.language,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Config loaded: Model=%s URL=%s Provider=%s\n", cfg.Model, cfg.BaseURL, cfg.Provider)
	}

	text, source, err := readInput(opts, stdin)
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Read %d characters from %s\n", utf8.RuneCountInString(text), source)
	}

	client := llm.New(llm.Config{
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})
	return explain(context.Background(), client, text, source, cfg.DefaultLanguage, opts, stdout, stderr)
}

// readInput returns the text to explain and a label for where it came from.
func readInput(opts cliOptions, stdin io.Reader) (string, string, error) {
	var raw []byte
	var source string
	switch {
	case opts.text != "":
		raw, source = []byte(opts.text), "argument"
	case opts.filePath != "" && opts.filePath != "-":
		data, err := os.ReadFile(opts.filePath)
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", opts.filePath, err)
		}
		raw, source = data, opts.filePath
	default:
		data, err := io.ReadAll(io.LimitReader(stdin, maxInputSize+1))
		if err != nil {
			return "", "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		raw, source = data, "stdin"
	}

	if len(raw) > maxInputSize {
		return "", "", fmt.Errorf("input exceeds maximum size of %d KB", maxInputSizeKB)
	}
	if !utf8.Valid(raw) {
		return "", "", errors.New("input is not valid UTF-8 text")
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", "", errors.New("input is empty")
	}
	return text, source, nil
}

func explain(ctx context.Context, client generator, text, source, language string, opts cliOptions, stdout, stderr io.Writer) error {
	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Requesting explanation in %s from %s\n", language, client.Model())
	}

	startTime := time.Now()
	resp, err := client.Generate(ctx, llm.BuildPrompt(text, language))
	elapsed := time.Since(startTime)

	if err != nil {
		if opts.verbose {
			fmt.Fprintf(stderr, "[verbose] Request failed after %v: %v\n", elapsed, err)
		}
		return errors.New(llm.FormatError(err, client.Model()))
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "[verbose] Completed in %v, %d characters\n", elapsed, len(resp))
	}

	return outputResult(stdout, ExplainResult{
		Text:      resp,
		Input:     text,
		Source:    source,
		Language:  language,
		Model:     client.Model(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
	}, opts.jsonOutput)
}

type ExplainResult struct {
	Text      string  `json:"text"`
	Input     string  `json:"input"`
	Source    string  `json:"source"`
	Language  string  `json:"language"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
}

func outputResult(w io.Writer, result ExplainResult, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintln(w, result.Text)
	return err
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"text", "file", "json", "verbose", "language", "model", "url"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + name + "=" + arg[len("-"+name+"="):]
			}
		}
	}

	return normalized
}
