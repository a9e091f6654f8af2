// Package i18n resolves the user-facing strings of the editor.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	goLocale "github.com/jeandeaual/go-locale"
	i18nLib "github.com/kaptinlin/go-i18n"
	"golang.org/x/text/language"
)

// TestModeEnvVar makes T return the key (plus its arguments) instead of a
// translation.
const TestModeEnvVar = "MCARCH_TEST"

const defaultLocale = "en-GB"

type LocaleProvider interface {
	GetLocales() ([]string, error)
}

type systemLocales struct{}

func (systemLocales) GetLocales() ([]string, error) {
	return goLocale.GetLocales()
}

//go:embed lang/*.json
var langFS embed.FS

var (
	bundleFS       = langFS
	langDir        = "lang"
	localeProvider LocaleProvider = systemLocales{}

	setupOnce sync.Once
	// mu guards the localizer; its message cache is not safe for concurrent use.
	mu        sync.Mutex
	localizer *i18nLib.Localizer
)

type TData map[string]interface{}

type Tvars struct {
	Count int
	Data  *TData
}

// T translates key for the user's locale. At most one Tvars may be passed.
func T(key string, args ...Tvars) string {
	if _, ok := os.LookupEnv(TestModeEnvVar); ok {
		return describeKey(key, args...)
	}
	if len(args) > 1 {
		panic("i18n.T accepts a single Tvars")
	}

	setupOnce.Do(setup)

	mu.Lock()
	defer mu.Unlock()

	if len(args) == 0 {
		return localizer.Get(key)
	}
	return localizer.Get(key, i18nLib.Vars(args[0].vars()))
}

func (vars Tvars) vars() map[string]interface{} {
	out := map[string]interface{}{"count": vars.Count}
	if vars.Data != nil {
		for key, value := range *vars.Data {
			out[key] = value
		}
	}
	return out
}

func setup() {
	entries, err := bundleFS.ReadDir(langDir)
	if err != nil {
		panic(err)
	}

	locales := []string{defaultLocale}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if !strings.EqualFold(locale, defaultLocale) {
			locales = append(locales, locale)
		}
	}

	bundle := i18nLib.NewBundle(
		i18nLib.WithDefaultLocale(defaultLocale),
		i18nLib.WithLocales(locales...),
	)
	if err := bundle.LoadFS(bundleFS, langDir+"/*.json"); err != nil {
		panic(err)
	}

	mu.Lock()
	localizer = bundle.NewLocalizer(candidateLocales(userLocales())...)
	mu.Unlock()
}

func userLocales() []string {
	if lang, ok := os.LookupEnv("LANG"); ok {
		return []string{lang}
	}

	detected, err := localeProvider.GetLocales()
	if err != nil {
		return []string{language.English.String()}
	}
	return detected
}

// candidateLocales canonicalises locale names and adds each base language as a
// fallback right after its regional form.
func candidateLocales(raw []string) []string {
	seen := make(map[string]bool, len(raw)*2)
	out := make([]string, 0, len(raw)*2)
	add := func(locale string) {
		if locale == "" || seen[locale] {
			return
		}
		seen[locale] = true
		out = append(out, locale)
	}

	for _, name := range raw {
		// POSIX names carry an encoding suffix (en_GB.UTF-8).
		name = strings.SplitN(name, ".", 2)[0]
		if name == "" {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		add(tag.String())
		if base, confidence := tag.Base(); confidence != language.No {
			add(base.String())
		}
	}
	return out
}

func describeKey(key string, args ...Tvars) string {
	var sb strings.Builder
	sb.WriteString(key)
	for i, arg := range args {
		sb.WriteString(fmt.Sprintf(", Arg %d: {Count: %d, Data: %v}", i+1, arg.Count, arg.Data))
	}
	return sb.String()
}

// ResetForTesting drops the loaded bundle so the next T call reloads it.
func ResetForTesting() {
	mu.Lock()
	localizer = nil
	mu.Unlock()
	setupOnce = sync.Once{}
}
