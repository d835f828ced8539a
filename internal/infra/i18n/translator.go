package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLanguage backs every other locale: keys a locale lacks are read from it.
const DefaultLanguage = "en"

// Translator resolves user-visible message keys for one language.
type Translator struct {
	lang     string
	messages map[string]string
}

// NewTranslator loads locales/<lang>.yaml layered over the default locale.
// A regional tag such as "fr-CA" falls back to "fr" when no exact file exists.
func NewTranslator(fsys fs.FS, lang string) (*Translator, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLanguage
	}

	base, err := readLocale(fsys, DefaultLanguage)
	if err != nil {
		return nil, err
	}
	t := &Translator{lang: DefaultLanguage, messages: base}
	if lang == DefaultLanguage {
		return t, nil
	}

	for _, candidate := range []string{lang, strings.SplitN(lang, "-", 2)[0]} {
		msgs, err := readLocale(fsys, candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for k, v := range msgs {
			t.messages[k] = v
		}
		t.lang = candidate
		break
	}
	return t, nil
}

func readLocale(fsys fs.FS, lang string) (map[string]string, error) {
	p := path.Join("locales", lang+".yaml")
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read locale %s: %w", p, err)
	}
	return parseMessages(data)
}

func parseMessages(data []byte) (map[string]string, error) {
	msgs := map[string]string{}
	if err := yaml.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse locale: %w", err)
	}
	return msgs, nil
}

// Lang is the most specific locale that was actually loaded.
func (t *Translator) Lang() string { return t.lang }

// T returns the message for key, or the key itself when it is missing.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.messages[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
