package config

// Config is the persisted soundscribe configuration. CLI flags override
// anything set here.
type Config struct {
	Transcription TranscriptionConfig          `toml:"transcription"`
	Audio         AudioConfig                  `toml:"audio"`
	Output        OutputConfig                 `toml:"output"`
	Engines       map[string]EngineCredentials `toml:"engines"`
}

// TranscriptionConfig selects the engine and its recognition options
type TranscriptionConfig struct {
	Engine string `toml:"engine"`
	Locale string `toml:"locale"`
	Fast   bool   `toml:"fast"`
	Redact bool   `toml:"redact"`
}

// AudioConfig tunes the producer side of the pipeline
type AudioConfig struct {
	WindowFrames  int `toml:"window_frames"`
	ChannelBuffer int `toml:"channel_buffer"`
}

// OutputConfig sets default output modes, each overridable per run
type OutputConfig struct {
	JSON         bool `toml:"json"`
	Stream       bool `toml:"stream"`
	Confidence   bool `toml:"confidence"`
	Alternatives bool `toml:"alternatives"`
	Quiet        bool `toml:"quiet"`
}

// EngineCredentials holds the API key for a cloud engine
type EngineCredentials struct {
	APIKey string `toml:"api_key"`
}
