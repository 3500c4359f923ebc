// Package language canonicalizes the free-form language and genre
// labels attached to movies, so "ENGLISH", "english" and "en" all land
// on the same gallery filter value.
package language

import (
	"strings"

	"golang.org/x/text/cases"
	lang "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
	{"ta", "tam", "Tamil", []string{"tamil"}},
	{"ml", "mal", "Malayalam", []string{"malayalam"}},
	{"te", "tel", "Telugu", []string{"telugu"}},
	{"kn", "kan", "Kannada", []string{"kannada"}},
	{"bn", "ben", "Bengali", []string{"bengali"}},
	{"es", "spa", "Spanish", []string{"spanish"}},
	{"fr", "fra", "French", []string{"french"}},
	{"de", "deu", "German", []string{"german"}},
	{"it", "ita", "Italian", []string{"italian"}},
	{"pt", "por", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "Korean", []string{"korean"}},
	{"zh", "zho", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
}

// Index maps built at init time.
var (
	byCode map[string]*entry
	byWord map[string]*entry
)

var titleCaser = cases.Title(lang.Und)

func init() {
	byCode = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(label string) *entry {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil
	}
	if e, ok := byWord[label]; ok {
		return e
	}
	if e, ok := byCode[label]; ok {
		return e
	}
	return nil
}

// Canonical maps a label to its display form. Known languages resolve
// through the table (including ISO codes); anything else is title-cased
// as-is, so unknown labels still collate consistently.
func Canonical(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	if e := lookup(label); e != nil {
		return e.display
	}
	return titleCaser.String(strings.ToLower(label))
}

// CanonicalList canonicalizes every label, dropping empties and
// duplicates while preserving first-seen order.
func CanonicalList(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		label := Canonical(raw)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
