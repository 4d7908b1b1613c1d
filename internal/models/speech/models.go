package speech

import (
	"os"
	"path/filepath"

	"github.com/soundscribe/soundscribe/internal/locale"
)

// ModelInfo holds metadata for one language's recognition models. Every
// locale sharing the language uses the same assets; the fast tier trades
// accuracy for latency and a much smaller download.
type ModelInfo struct {
	Language      string // short language code (e.g., "en")
	Name          string // display name (e.g., "English")
	Filename      string // accurate-tier asset
	SizeBytes     int64
	FastFilename  string // fast-tier asset
	FastSizeBytes int64
}

// available recognition models, one per supported language
var models = []ModelInfo{
	{Language: "en", Name: "English", Filename: "scribe-en-base.bin", SizeBytes: 148_000_000, FastFilename: "scribe-en-tiny.bin", FastSizeBytes: 39_000_000},
	{Language: "es", Name: "Spanish", Filename: "scribe-es-base.bin", SizeBytes: 152_000_000, FastFilename: "scribe-es-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "fr", Name: "French", Filename: "scribe-fr-base.bin", SizeBytes: 151_000_000, FastFilename: "scribe-fr-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "de", Name: "German", Filename: "scribe-de-base.bin", SizeBytes: 153_000_000, FastFilename: "scribe-de-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "it", Name: "Italian", Filename: "scribe-it-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-it-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "pt", Name: "Portuguese", Filename: "scribe-pt-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-pt-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "nl", Name: "Dutch", Filename: "scribe-nl-base.bin", SizeBytes: 149_000_000, FastFilename: "scribe-nl-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "sv", Name: "Swedish", Filename: "scribe-sv-base.bin", SizeBytes: 148_000_000, FastFilename: "scribe-sv-tiny.bin", FastSizeBytes: 39_000_000},
	{Language: "da", Name: "Danish", Filename: "scribe-da-base.bin", SizeBytes: 148_000_000, FastFilename: "scribe-da-tiny.bin", FastSizeBytes: 39_000_000},
	{Language: "no", Name: "Norwegian", Filename: "scribe-no-base.bin", SizeBytes: 148_000_000, FastFilename: "scribe-no-tiny.bin", FastSizeBytes: 39_000_000},
	{Language: "fi", Name: "Finnish", Filename: "scribe-fi-base.bin", SizeBytes: 149_000_000, FastFilename: "scribe-fi-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "pl", Name: "Polish", Filename: "scribe-pl-base.bin", SizeBytes: 151_000_000, FastFilename: "scribe-pl-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "ru", Name: "Russian", Filename: "scribe-ru-base.bin", SizeBytes: 154_000_000, FastFilename: "scribe-ru-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "uk", Name: "Ukrainian", Filename: "scribe-uk-base.bin", SizeBytes: 153_000_000, FastFilename: "scribe-uk-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "tr", Name: "Turkish", Filename: "scribe-tr-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-tr-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "ja", Name: "Japanese", Filename: "scribe-ja-base.bin", SizeBytes: 158_000_000, FastFilename: "scribe-ja-tiny.bin", FastSizeBytes: 43_000_000},
	{Language: "ko", Name: "Korean", Filename: "scribe-ko-base.bin", SizeBytes: 156_000_000, FastFilename: "scribe-ko-tiny.bin", FastSizeBytes: 42_000_000},
	{Language: "zh", Name: "Chinese", Filename: "scribe-zh-base.bin", SizeBytes: 160_000_000, FastFilename: "scribe-zh-tiny.bin", FastSizeBytes: 44_000_000},
	{Language: "ar", Name: "Arabic", Filename: "scribe-ar-base.bin", SizeBytes: 154_000_000, FastFilename: "scribe-ar-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "hi", Name: "Hindi", Filename: "scribe-hi-base.bin", SizeBytes: 153_000_000, FastFilename: "scribe-hi-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "id", Name: "Indonesian", Filename: "scribe-id-base.bin", SizeBytes: 149_000_000, FastFilename: "scribe-id-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "vi", Name: "Vietnamese", Filename: "scribe-vi-base.bin", SizeBytes: 151_000_000, FastFilename: "scribe-vi-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "th", Name: "Thai", Filename: "scribe-th-base.bin", SizeBytes: 152_000_000, FastFilename: "scribe-th-tiny.bin", FastSizeBytes: 41_000_000},
	{Language: "cs", Name: "Czech", Filename: "scribe-cs-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-cs-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "el", Name: "Greek", Filename: "scribe-el-base.bin", SizeBytes: 151_000_000, FastFilename: "scribe-el-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "he", Name: "Hebrew", Filename: "scribe-he-base.bin", SizeBytes: 151_000_000, FastFilename: "scribe-he-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "hu", Name: "Hungarian", Filename: "scribe-hu-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-hu-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "ro", Name: "Romanian", Filename: "scribe-ro-base.bin", SizeBytes: 150_000_000, FastFilename: "scribe-ro-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "sk", Name: "Slovak", Filename: "scribe-sk-base.bin", SizeBytes: 149_000_000, FastFilename: "scribe-sk-tiny.bin", FastSizeBytes: 40_000_000},
	{Language: "ca", Name: "Catalan", Filename: "scribe-ca-base.bin", SizeBytes: 149_000_000, FastFilename: "scribe-ca-tiny.bin", FastSizeBytes: 40_000_000},
}

// modelByLanguage maps language code to ModelInfo for quick lookup
var modelByLanguage = func() map[string]ModelInfo {
	m := make(map[string]ModelInfo, len(models))
	for _, model := range models {
		m[model.Language] = model
	}
	return m
}()

const (
	// base URL for downloading model assets
	baseDownloadURL = "https://models.soundscribe.dev/speech/v1"
)

// ModelsDir returns the directory where speech models are stored
func ModelsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "soundscribe", "models", "speech"), nil
}

// ModelForLocale returns the model serving a locale, or nil if the
// locale's language has no model.
func ModelForLocale(localeID string) *ModelInfo {
	info, ok := modelByLanguage[locale.LanguageCode(localeID)]
	if !ok {
		return nil
	}
	return &info
}

// assetFor picks the tier-appropriate filename and size
func assetFor(info *ModelInfo, fast bool) (string, int64) {
	if fast {
		return info.FastFilename, info.FastSizeBytes
	}
	return info.Filename, info.SizeBytes
}

// PathFor returns the on-disk path of the model asset serving a locale
// at the given tier. Empty string if the locale has no model.
func PathFor(localeID string, fast bool) string {
	info := ModelForLocale(localeID)
	if info == nil {
		return ""
	}
	dir, err := ModelsDir()
	if err != nil {
		return ""
	}
	name, _ := assetFor(info, fast)
	return filepath.Join(dir, name)
}

// DownloadURL returns the download URL of the model asset serving a
// locale at the given tier. Empty string if the locale has no model.
func DownloadURL(localeID string, fast bool) string {
	info := ModelForLocale(localeID)
	if info == nil {
		return ""
	}
	name, _ := assetFor(info, fast)
	return baseDownloadURL + "/" + name
}

// SupportedLocales returns every locale whose language has a model
func SupportedLocales() []string {
	var supported []string
	for _, loc := range locale.List() {
		if _, ok := modelByLanguage[loc.Language]; ok {
			supported = append(supported, loc.ID)
		}
	}
	return supported
}

// ListModels returns all known models
func ListModels() []ModelInfo {
	result := make([]ModelInfo, len(models))
	copy(result, models)
	return result
}
