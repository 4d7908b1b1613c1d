package locale

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en-US", "en-US"},
		{"en_us", "en-US"},
		{"EN-us", "en-US"},
		{"en_US", "en-US"},
		{" de-de ", "de-DE"},
		{"PT_br", "pt-BR"},
		{"fr", "fr"},
		{"FR", "fr"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFromID(t *testing.T) {
	loc, ok := FromID("en_us")
	if !ok {
		t.Fatalf("FromID(en_us) not found")
	}
	if loc.ID != "en-US" {
		t.Errorf("ID = %s, want en-US", loc.ID)
	}
	if loc.Language != "en" {
		t.Errorf("Language = %s, want en", loc.Language)
	}
	if loc.Name != "English (United States)" {
		t.Errorf("Name = %s", loc.Name)
	}

	if _, ok := FromID("xx-XX"); ok {
		t.Errorf("FromID(xx-XX) should not be found")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"en-US", true},
		{"de_de", true},
		{"ja-JP", true},
		{"xx-XX", false},
		{"", false},
		{"en", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValid(tt.id); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.id, got, tt.expected)
			}
		})
	}
}

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"en-US", "en"},
		{"zh-TW", "zh"},
		// Bokmål maps onto the generic Norwegian model code
		{"nb-NO", "no"},
		// unknown locales fall back to the language part of the ID
		{"xx-YY", "xx"},
		{"QQ", "qq"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := LanguageCode(tt.id); got != tt.expected {
				t.Errorf("LanguageCode(%q) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}

func TestListAndIDs(t *testing.T) {
	list := List()
	ids := IDs()
	if len(list) == 0 {
		t.Fatal("List() is empty")
	}
	if len(list) != len(ids) {
		t.Errorf("List() has %d entries, IDs() has %d", len(list), len(ids))
	}

	// List returns a copy; mutating it must not corrupt the catalog
	list[0].ID = "zz-ZZ"
	if _, ok := FromID(ids[0]); !ok {
		t.Errorf("catalog mutated through List() copy")
	}
}
