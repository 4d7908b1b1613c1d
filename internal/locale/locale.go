package locale

import "strings"

// Locale represents a speech-recognition locale
type Locale struct {
	ID         string // BCP-47 identifier (e.g., "en-US", "de-DE")
	Name       string // English name (e.g., "English (United States)")
	Language   string // short language code used by local models (e.g., "en")
	NativeName string // Native name (e.g., "English", "Deutsch")
}

// locales is the master list of locales soundscribe can name.
// Which of these are actually transcribable depends on the engine's
// supported set, resolved at pipeline start.
var locales = []Locale{
	{ID: "en-US", Name: "English (United States)", Language: "en", NativeName: "English"},
	{ID: "en-GB", Name: "English (United Kingdom)", Language: "en", NativeName: "English"},
	{ID: "en-AU", Name: "English (Australia)", Language: "en", NativeName: "English"},
	{ID: "en-IN", Name: "English (India)", Language: "en", NativeName: "English"},
	{ID: "es-ES", Name: "Spanish (Spain)", Language: "es", NativeName: "Español"},
	{ID: "es-MX", Name: "Spanish (Mexico)", Language: "es", NativeName: "Español"},
	{ID: "fr-FR", Name: "French (France)", Language: "fr", NativeName: "Français"},
	{ID: "fr-CA", Name: "French (Canada)", Language: "fr", NativeName: "Français"},
	{ID: "de-DE", Name: "German (Germany)", Language: "de", NativeName: "Deutsch"},
	{ID: "it-IT", Name: "Italian (Italy)", Language: "it", NativeName: "Italiano"},
	{ID: "pt-BR", Name: "Portuguese (Brazil)", Language: "pt", NativeName: "Português"},
	{ID: "nl-NL", Name: "Dutch (Netherlands)", Language: "nl", NativeName: "Nederlands"},
	{ID: "sv-SE", Name: "Swedish (Sweden)", Language: "sv", NativeName: "Svenska"},
	{ID: "da-DK", Name: "Danish (Denmark)", Language: "da", NativeName: "Dansk"},
	{ID: "nb-NO", Name: "Norwegian Bokmål (Norway)", Language: "no", NativeName: "Norsk"},
	{ID: "fi-FI", Name: "Finnish (Finland)", Language: "fi", NativeName: "Suomi"},
	{ID: "pl-PL", Name: "Polish (Poland)", Language: "pl", NativeName: "Polski"},
	{ID: "ru-RU", Name: "Russian (Russia)", Language: "ru", NativeName: "Русский"},
	{ID: "uk-UA", Name: "Ukrainian (Ukraine)", Language: "uk", NativeName: "Українська"},
	{ID: "tr-TR", Name: "Turkish (Turkey)", Language: "tr", NativeName: "Türkçe"},
	{ID: "ja-JP", Name: "Japanese (Japan)", Language: "ja", NativeName: "日本語"},
	{ID: "ko-KR", Name: "Korean (South Korea)", Language: "ko", NativeName: "한국어"},
	{ID: "zh-CN", Name: "Chinese (Mainland China)", Language: "zh", NativeName: "中文"},
	{ID: "zh-TW", Name: "Chinese (Taiwan)", Language: "zh", NativeName: "中文"},
	{ID: "ar-SA", Name: "Arabic (Saudi Arabia)", Language: "ar", NativeName: "العربية"},
	{ID: "hi-IN", Name: "Hindi (India)", Language: "hi", NativeName: "हिन्दी"},
	{ID: "id-ID", Name: "Indonesian (Indonesia)", Language: "id", NativeName: "Bahasa Indonesia"},
	{ID: "vi-VN", Name: "Vietnamese (Vietnam)", Language: "vi", NativeName: "Tiếng Việt"},
	{ID: "th-TH", Name: "Thai (Thailand)", Language: "th", NativeName: "ไทย"},
	{ID: "cs-CZ", Name: "Czech (Czech Republic)", Language: "cs", NativeName: "Čeština"},
	{ID: "el-GR", Name: "Greek (Greece)", Language: "el", NativeName: "Ελληνικά"},
	{ID: "he-IL", Name: "Hebrew (Israel)", Language: "he", NativeName: "עברית"},
	{ID: "hu-HU", Name: "Hungarian (Hungary)", Language: "hu", NativeName: "Magyar"},
	{ID: "ro-RO", Name: "Romanian (Romania)", Language: "ro", NativeName: "Română"},
	{ID: "sk-SK", Name: "Slovak (Slovakia)", Language: "sk", NativeName: "Slovenčina"},
	{ID: "ca-ES", Name: "Catalan (Spain)", Language: "ca", NativeName: "Català"},
}

// idIndex maps locale IDs to their Locale structs for fast lookup
var idIndex map[string]Locale

func init() {
	idIndex = make(map[string]Locale, len(locales))
	for _, loc := range locales {
		idIndex[loc.ID] = loc
	}
}

// Normalize canonicalizes a locale identifier: underscores become hyphens,
// the language part is lowercased and the region part uppercased, so
// "en_us" and "EN-us" both normalize to "en-US".
func Normalize(id string) string {
	id = strings.ReplaceAll(strings.TrimSpace(id), "_", "-")
	parts := strings.SplitN(id, "-", 2)
	if len(parts) == 1 {
		return strings.ToLower(parts[0])
	}
	return strings.ToLower(parts[0]) + "-" + strings.ToUpper(parts[1])
}

// FromID returns the Locale for the given identifier after normalization.
// The second return is false if the identifier is unknown.
func FromID(id string) (Locale, bool) {
	loc, ok := idIndex[Normalize(id)]
	return loc, ok
}

// IsValid returns true if the identifier names a known locale
func IsValid(id string) bool {
	_, ok := idIndex[Normalize(id)]
	return ok
}

// List returns all known locales
func List() []Locale {
	result := make([]Locale, len(locales))
	copy(result, locales)
	return result
}

// IDs returns all known locale identifiers
func IDs() []string {
	ids := make([]string, len(locales))
	for i, loc := range locales {
		ids[i] = loc.ID
	}
	return ids
}

// LanguageCode returns the short language code for a locale identifier,
// falling back to the lowercased language part of the ID if unknown.
func LanguageCode(id string) string {
	if loc, ok := FromID(id); ok {
		return loc.Language
	}
	parts := strings.SplitN(Normalize(id), "-", 2)
	return parts[0]
}
