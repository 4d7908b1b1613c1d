package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soundscribe/soundscribe/internal/config"
	"github.com/soundscribe/soundscribe/internal/deps"
	"github.com/soundscribe/soundscribe/internal/engine"
	"github.com/soundscribe/soundscribe/internal/locale"
	"github.com/soundscribe/soundscribe/internal/models/speech"
	"github.com/soundscribe/soundscribe/internal/pipeline"
	"github.com/soundscribe/soundscribe/internal/tui"
	"github.com/soundscribe/soundscribe/internal/watch"
)

const version = "0.3.0"

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "soundscribe",
	Short:        "Transcribe audio files with on-device speech recognition",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(
		transcribeCmd(),
		localesCmd(),
		modelsCmd(),
		watchCmd(),
		configureCmd(),
		doctorCmd(),
		versionCmd(),
	)
}

// transcribeFlags are the per-run overrides shared by transcribe and
// watch. Booleans only take effect when the flag was set, so config
// defaults survive.
type transcribeFlags struct {
	engineName   string
	localeID     string
	fast         bool
	redact       bool
	jsonOut      bool
	stream       bool
	confidence   bool
	alternatives bool
	quiet        bool
	output       string
}

func (f *transcribeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.engineName, "engine", "", "recognition engine (whisper-cpp, openai)")
	cmd.Flags().StringVarP(&f.localeID, "locale", "l", "", "recognition locale (e.g. en-US)")
	cmd.Flags().BoolVar(&f.fast, "fast", false, "use the low-latency model tier")
	cmd.Flags().BoolVar(&f.redact, "redact", false, "mask digit runs in the transcript")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "emit a JSON object with segments")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "emit results incrementally as they arrive")
	cmd.Flags().BoolVar(&f.confidence, "confidence", false, "include per-segment confidence (JSON)")
	cmd.Flags().BoolVar(&f.alternatives, "alternatives", false, "include alternative readings (JSON)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress diagnostics on stderr")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the plain transcript to a file")
}

// merge applies config defaults, then any flag the user actually set
func (f *transcribeFlags) merge(cmd *cobra.Command, cfg *config.Config) {
	if f.engineName == "" {
		f.engineName = cfg.Transcription.Engine
	}
	if f.localeID == "" {
		f.localeID = cfg.Transcription.Locale
	}
	set := cmd.Flags().Changed
	if !set("fast") {
		f.fast = cfg.Transcription.Fast
	}
	if !set("redact") {
		f.redact = cfg.Transcription.Redact
	}
	if !set("json") {
		f.jsonOut = cfg.Output.JSON
	}
	if !set("stream") {
		f.stream = cfg.Output.Stream
	}
	if !set("confidence") {
		f.confidence = cfg.Output.Confidence
	}
	if !set("alternatives") {
		f.alternatives = cfg.Output.Alternatives
	}
	if !set("quiet") {
		f.quiet = cfg.Output.Quiet
	}
}

func transcribeCmd() *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags.merge(cmd, cfg)
			if flags.quiet {
				log.SetOutput(io.Discard)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runTranscribe(ctx, cfg, &flags, args[0], flags.output)
		},
	}
	flags.register(cmd)
	return cmd
}

func runTranscribe(ctx context.Context, cfg *config.Config, flags *transcribeFlags, inputPath, outputPath string) error {
	eng, err := engine.New(flags.engineName, engine.Config{
		Locale: locale.Normalize(flags.localeID),
		Fast:   flags.fast,
		Redact: flags.redact,
		APIKey: cfg.APIKeyFor(flags.engineName),
	})
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		InputPath:           inputPath,
		Locale:              flags.localeID,
		Stream:              flags.stream,
		JSON:                flags.jsonOut,
		IncludeConfidence:   flags.confidence,
		IncludeAlternatives: flags.alternatives,
		OutputPath:          outputPath,
		WindowFrames:        cfg.Audio.WindowFrames,
		ChannelBuffer:       cfg.Audio.ChannelBuffer,
	}, eng)

	_, err = p.Run(ctx)
	return err
}

func localesCmd() *cobra.Command {
	var fast bool

	cmd := &cobra.Command{
		Use:   "locales",
		Short: "List supported locales, marking installed models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, loc := range locale.List() {
				line := fmt.Sprintf("%-8s %s", loc.ID, loc.Name)
				if speech.IsInstalled(loc.ID, fast) {
					line = tui.StyleHighlight.Render(line) + tui.StyleMuted.Render("  [installed]")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fast, "fast", false, "check the fast model tier instead")
	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage recognition models",
	}
	cmd.AddCommand(modelsListCmd(), modelsDownloadCmd(), modelsRemoveCmd())
	return cmd
}

func modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recognition models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range speech.ListModels() {
				fmt.Printf("%-4s %-12s %s (%.0f MB), fast: %s (%.0f MB)\n",
					m.Language, m.Name,
					m.Filename, float64(m.SizeBytes)/1e6,
					m.FastFilename, float64(m.FastSizeBytes)/1e6)
			}
			return nil
		},
	}
}

func modelsDownloadCmd() *cobra.Command {
	var fast bool

	cmd := &cobra.Command{
		Use:   "download <locale>",
		Short: "Download the recognition model for a locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			localeID := locale.Normalize(args[0])
			if !locale.IsValid(localeID) {
				return fmt.Errorf("unknown locale: %s", args[0])
			}
			if speech.IsInstalled(localeID, fast) {
				fmt.Fprintf(os.Stderr, "model for %s already installed\n", localeID)
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := speech.Download(ctx, localeID, fast, func(downloaded, total int64) {
				if total > 0 {
					fmt.Fprintf(os.Stderr, "\rdownloading %s: %d%%", localeID, downloaded*100/total)
				}
			})
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("download model for %s: %w", localeID, err)
			}
			fmt.Fprintf(os.Stderr, "model for %s installed\n", localeID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fast, "fast", false, "download the fast model tier instead")
	return cmd
}

func modelsRemoveCmd() *cobra.Command {
	var fast bool

	cmd := &cobra.Command{
		Use:   "remove <locale>",
		Short: "Remove a downloaded recognition model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return speech.Remove(locale.Normalize(args[0]), fast)
		},
	}
	cmd.Flags().BoolVar(&fast, "fast", false, "remove the fast model tier instead")
	return cmd
}

func watchCmd() *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Transcribe audio files as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags.merge(cmd, cfg)
			if flags.quiet {
				log.SetOutput(io.Discard)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(args[0], func(ctx context.Context, path string) error {
				// each file gets its transcript written next to it
				out := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
				return runTranscribe(ctx, cfg, &flags, path, out)
			})
			if err != nil {
				return fmt.Errorf("watch %s: %w", args[0], err)
			}

			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println(tui.Banner())
			result, err := tui.Run(cfg)
			if err != nil {
				return err
			}
			if result.Cancelled {
				fmt.Println("Configuration cancelled.")
				return nil
			}

			if err := result.Config.Validate(); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			if err := config.Save(result.Config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			configPath, _ := config.GetConfigPath()
			fmt.Printf("Configuration saved to %s\n", configPath)
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			var missing bool
			for _, status := range deps.CheckAll() {
				switch {
				case status.Installed:
					fmt.Printf("%s %s (%s)\n", tui.StyleSuccess.Render("ok"), status.Name, status.Path)
				case status.Required:
					fmt.Printf("%s %s not found\n", tui.StyleError.Render("!!"), status.Name)
					missing = true
				default:
					fmt.Printf("%s %s not found (optional)\n", tui.StyleWarning.Render("--"), status.Name)
				}
			}
			if missing {
				return fmt.Errorf("required dependencies missing")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the soundscribe version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
