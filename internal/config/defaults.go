package config

// DefaultConfig returns the configuration used when no config file
// exists yet
func DefaultConfig() *Config {
	return &Config{
		Transcription: TranscriptionConfig{
			Engine: "whisper-cpp",
			Locale: "en-US",
		},
		Audio: AudioConfig{
			WindowFrames:  4096,
			ChannelBuffer: 8,
		},
		Engines: make(map[string]EngineCredentials),
	}
}
