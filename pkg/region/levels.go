package region

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LevelCodes maps administrative level names to the short codes rendered
// next to committed regions. Keys are matched case and accent insensitively.
type LevelCodes struct {
	codes map[string]string
}

// DefaultLevelCodes returns the codes for the four standard levels.
func DefaultLevelCodes() LevelCodes {
	return NewLevelCodes(map[string]string{
		"Département":    "Dep",
		"Commune":        "Com",
		"Arrondissement": "Arr",
		"Village":        "vlg",
	})
}

// NewLevelCodes builds a lookup from level name to code.
func NewLevelCodes(codes map[string]string) LevelCodes {
	out := LevelCodes{codes: make(map[string]string, len(codes))}
	for name, code := range codes {
		key := foldKey(name)
		if key == "" {
			continue
		}
		out.codes[key] = strings.TrimSpace(code)
	}
	return out
}

// With returns a copy of the lookup with name mapped to code.
func (l LevelCodes) With(name, code string) LevelCodes {
	out := LevelCodes{codes: make(map[string]string, len(l.codes)+1)}
	for k, v := range l.codes {
		out.codes[k] = v
	}
	if key := foldKey(name); key != "" {
		out.codes[key] = strings.TrimSpace(code)
	}
	return out
}

// Code returns the code for a level name. Unknown levels fall back to the
// first three letters of the name with the first letter upper-cased.
func (l LevelCodes) Code(level string) string {
	if code, ok := l.codes[foldKey(level)]; ok {
		return code
	}
	return abbreviate(level)
}

// Len reports the number of explicitly configured levels.
func (l LevelCodes) Len() int {
	return len(l.codes)
}

func abbreviate(level string) string {
	level = strings.TrimSpace(level)
	if level == "" {
		return ""
	}
	r := []rune(strings.ToLower(level))
	if len(r) > 3 {
		r = r[:3]
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Slug turns a level name into an identifier fragment: accents removed,
// lower-cased, runs of other characters collapsed into sep.
func Slug(name, sep string) string {
	folded := fold(name)
	var b strings.Builder
	pending := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

// SelectID returns the DOM id used for a level selector, e.g. "id_commune".
func SelectID(level string) string {
	slug := Slug(level, "_")
	if slug == "" {
		return "id_region"
	}
	return "id_" + slug
}

func foldKey(name string) string {
	return strings.ToLower(strings.TrimSpace(fold(name)))
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
