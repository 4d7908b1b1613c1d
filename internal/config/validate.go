package config

import (
	"fmt"

	"github.com/soundscribe/soundscribe/internal/locale"
)

func (c *Config) Validate() error {
	if c.Transcription.Engine == "" {
		return fmt.Errorf("invalid transcription.engine: empty")
	}
	switch c.Transcription.Engine {
	case "whisper-cpp":
	case "openai":
		if c.APIKeyFor("openai") == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (engines.openai.api_key) or environment variable (OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("invalid transcription.engine: %s", c.Transcription.Engine)
	}

	if c.Transcription.Locale == "" {
		return fmt.Errorf("invalid transcription.locale: empty")
	}
	if !locale.IsValid(c.Transcription.Locale) {
		return fmt.Errorf("invalid transcription.locale: %s (use BCP-47 identifiers like 'en-US', 'de-DE')", c.Transcription.Locale)
	}

	if c.Audio.WindowFrames <= 0 {
		return fmt.Errorf("invalid audio.window_frames: %d", c.Audio.WindowFrames)
	}
	if c.Audio.ChannelBuffer <= 0 {
		return fmt.Errorf("invalid audio.channel_buffer: %d", c.Audio.ChannelBuffer)
	}

	return nil
}
