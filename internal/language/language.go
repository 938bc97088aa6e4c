package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	base    string // ISO 639-1 base language
	script  string // ISO 15924 script, empty when irrelevant
	display string // name used in prompts
}

var languages = []entry{
	{"zh", "Hant", "Traditional Chinese"},
	{"zh", "Hans", "Simplified Chinese"},
	{"en", "", "English"},
	{"ja", "", "Japanese"},
	{"ko", "", "Korean"},
	{"vi", "", "Vietnamese"},
	{"th", "", "Thai"},
	{"id", "", "Indonesian"},
	{"ms", "", "Malay"},
	{"tl", "", "Tagalog"},
	{"es", "", "Spanish"},
	{"fr", "", "French"},
	{"de", "", "German"},
}

// Normalize returns the canonical BCP 47 form of code, e.g. "zh_tw" becomes
// "zh-TW".
func Normalize(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// PromptName names code for an instruction to a model, e.g.
// "Traditional Chinese (zh-TW)". Unknown but valid tags fall back to their
// English display name; unparsable input is returned as given.
func PromptName(code string) string {
	tag, err := parse(code)
	if err != nil {
		return strings.TrimSpace(code)
	}
	name := displayName(tag)
	if name == "" {
		return tag.String()
	}
	return fmt.Sprintf("%s (%s)", name, tag.String())
}

func displayName(tag xlanguage.Tag) string {
	base, _ := tag.Base()
	script, _ := tag.Script()
	for _, e := range languages {
		if e.base != base.String() {
			continue
		}
		if e.script == "" || e.script == script.String() {
			return e.display
		}
	}
	return display.English.Tags().Name(tag)
}

func parse(code string) (xlanguage.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return xlanguage.Und, fmt.Errorf("language code is empty")
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return xlanguage.Und, fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return tag, nil
}
