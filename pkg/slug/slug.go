package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// special covers letters that do not decompose into ASCII plus a combining mark.
var special = strings.NewReplacer("ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "ł", "l", "đ", "d")

// Generate returns a lower-case ASCII slug of s joined by sep. Accents are
// stripped and runs of other characters collapse into one separator.
//
//	Generate("Çağrı Öztürk", "-")  // "cagri-ozturk"
//	Generate("jane.doe+work", "_") // "jane_doe_work"
func Generate(s, sep string) string {
	out := special.Replace(strings.ToLower(strings.TrimSpace(s)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, out); err == nil {
		out = folded
	}

	out = nonAlnum.ReplaceAllString(out, sep)
	return strings.Trim(out, sep)
}
