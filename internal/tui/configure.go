package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"

	"github.com/soundscribe/soundscribe/internal/config"
	"github.com/soundscribe/soundscribe/internal/engine"
	"github.com/soundscribe/soundscribe/internal/locale"
	"github.com/soundscribe/soundscribe/internal/models/speech"
)

// ConfigureResult holds the outcome of the configure form
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// engineDisplayNames maps engine IDs to human-readable names
var engineDisplayNames = map[string]string{
	engine.EngineWhisperCpp: "Whisper.cpp (local)",
	engine.EngineOpenAI:     "OpenAI Whisper (cloud)",
}

// Run presents the configuration form, seeded from the existing config
func Run(existing *config.Config) (*ConfigureResult, error) {
	cfg := *existing

	var apiKey string
	if creds, ok := cfg.Engines[engine.EngineOpenAI]; ok {
		apiKey = creds.APIKey
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Recognition engine").
				Description("Local engines keep audio on this machine").
				Options(engineOptions()...).
				Value(&cfg.Transcription.Engine),

			huh.NewSelect[string]().
				Title("Default locale").
				Options(localeOptions()...).
				Value(&cfg.Transcription.Locale),

			huh.NewConfirm().
				Title("Fast mode").
				Description("Smaller model tier, lower latency, less accurate").
				Value(&cfg.Transcription.Fast),

			huh.NewConfirm().
				Title("Redact digit runs").
				Description("Mask card/phone-like number spans in transcripts").
				Value(&cfg.Transcription.Redact),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API key").
				Description("Only needed for the cloud engine; leave empty otherwise").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	)

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return &ConfigureResult{Cancelled: true}, nil
		}
		return nil, fmt.Errorf("configure form: %w", err)
	}

	if cfg.Engines == nil {
		cfg.Engines = make(map[string]config.EngineCredentials)
	}
	if apiKey != "" {
		cfg.Engines[engine.EngineOpenAI] = config.EngineCredentials{APIKey: apiKey}
	}

	return &ConfigureResult{Config: &cfg}, nil
}

func engineOptions() []huh.Option[string] {
	names := engine.List()
	sort.Strings(names)
	opts := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		display := engineDisplayNames[name]
		if display == "" {
			display = name
		}
		opts = append(opts, huh.NewOption(display, name))
	}
	return opts
}

func localeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(locale.List()))
	for _, loc := range locale.List() {
		label := fmt.Sprintf("%s — %s", loc.ID, loc.Name)
		if speech.IsInstalled(loc.ID, false) {
			label += " (installed)"
		}
		opts = append(opts, huh.NewOption(label, loc.ID))
	}
	return opts
}

// Banner renders the styled program header, degrading to plain text on
// dumb terminals
func Banner() string {
	title := "soundscribe"
	if termenv.ColorProfile() == termenv.Ascii {
		return title
	}
	return StyleHeader.Render(title)
}
