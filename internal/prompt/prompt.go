// Package prompt builds the text sent to the model. Every builder is a pure
// function: the caller's input is spliced verbatim into a fixed template and
// never re-scanned, so placeholder-like input survives untouched.
package prompt

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.txt
var templates embed.FS

var (
	reviseEnglish    = load("templates/revise_en.txt")
	revisePortuguese = load("templates/revise_pt.txt")
	coding           = load("templates/coding.txt")
)

// Language selects the revision template.
type Language int

const (
	English Language = iota
	Portuguese
)

func (l Language) String() string {
	switch l {
	case English:
		return "English"
	case Portuguese:
		return "Portuguese"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Languages lists every supported revision language.
func Languages() []Language {
	return []Language{English, Portuguese}
}

// ParseLanguage accepts the language name or its ISO 639-1 code, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, nil
	case "portuguese", "pt":
		return Portuguese, nil
	default:
		return 0, fmt.Errorf("unsupported language %q (want English or Portuguese)", s)
	}
}

// Revision wraps text in the correction instructions for lang. It panics on
// a Language value outside the enum; validate external input with ParseLanguage.
func Revision(lang Language, text string) string {
	var tpl string
	switch lang {
	case English:
		tpl = reviseEnglish
	case Portuguese:
		tpl = revisePortuguese
	default:
		panic(fmt.Sprintf("prompt: unknown language %d", int(lang)))
	}
	return fill(tpl, map[string]string{"text": text})
}

// Coding embeds a task and, when non-empty, a fenced python snippet.
func Coding(task, snippet string) string {
	block := ""
	if snippet != "" {
		block = "\n```python\n" + snippet + "\n```\n"
	}
	return fill(coding, map[string]string{"task": task, "snippet": block})
}

// fill replaces {{name}} placeholders of tpl in a single pass over tpl.
// Unknown placeholders are kept literally.
func fill(tpl string, values map[string]string) string {
	var b strings.Builder
	rest := tpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end += start

		b.WriteString(rest[:start])
		if v, ok := values[rest[start+2:end]]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(rest[start : end+2])
		}
		rest = rest[end+2:]
	}
}

func load(name string) string {
	data, err := templates.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("prompt: missing template %s: %v", name, err))
	}
	return strings.TrimSuffix(string(data), "\n")
}
