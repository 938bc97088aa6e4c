package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"zh-TW": "zh-TW",
		"zh_tw": "zh-TW",
		" EN ":  "en",
		"ja-jp": "ja-JP",
	}
	for in, want := range tests {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not a language!"} {
		if _, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) expected error", in)
		}
	}
}

func TestPromptName(t *testing.T) {
	tests := map[string]string{
		"zh-TW":   "Traditional Chinese (zh-TW)",
		"zh-Hant": "Traditional Chinese (zh-Hant)",
		"zh-CN":   "Simplified Chinese (zh-CN)",
		"en":      "English (en)",
		"vi-VN":   "Vietnamese (vi-VN)",
		"!!":      "!!",
	}
	for in, want := range tests {
		if got := PromptName(in); got != want {
			t.Errorf("PromptName(%q) = %q, want %q", in, got, want)
		}
	}
}
