package lexicon

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// hebrewFinals maps final letter forms to the base letter used on tiles.
var hebrewFinals = strings.NewReplacer(
	"ך", "כ",
	"ם", "מ",
	"ן", "נ",
	"ף", "פ",
	"ץ", "צ",
)

// Normalize returns the lookup key for word: NFC composed, case folded and
// with Hebrew final forms replaced by their base letters.
func Normalize(word string) string {
	w := norm.NFC.String(strings.TrimSpace(word))
	// a Caser keeps state, so it is not shared between goroutines
	w = cases.Fold().String(w)
	return hebrewFinals.Replace(w)
}

// hebrewLatin is the transliteration compiled word graphs of Hebrew use.
var hebrewLatin = map[rune]string{
	'א': "a", 'ב': "b", 'ג': "g", 'ד': "d", 'ה': "h", 'ו': "v", 'ז': "z",
	'ח': "H", 'ט': "T", 'י': "y", 'כ': "c", 'ך': "c", 'ל': "l", 'מ': "m",
	'ם': "m", 'נ': "n", 'ן': "n", 'ס': "s", 'ע': "e", 'פ': "p", 'ף': "p",
	'צ': "w", 'ץ': "w", 'ק': "k", 'ר': "r", 'ש': "S", 'ת': "t",
}

// HebrewToLatin transliterates Hebrew letters and drops geresh marks. Other
// runes pass through.
func HebrewToLatin(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if r == '\'' || r == '׳' {
			continue
		}
		if l, ok := hebrewLatin[r]; ok {
			sb.WriteString(l)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
