package textutil

import "strings"

// unsafeReplacer maps characters that are unsafe in file names on common
// filesystems. Separators become dashes; the rest are dropped.
var unsafeReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes name safe to use as a file name component.
// Whitespace runs collapse to one underscore and leading or trailing
// separators are trimmed. An empty result means nothing usable was left.
func SanitizeFileName(name string) string {
	name = unsafeReplacer.Replace(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "_")
	return strings.Trim(name, "-_.")
}
