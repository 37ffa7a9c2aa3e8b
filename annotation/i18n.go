package annotation

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// Languages lists the locales with a message file. The first one is the
// bundle default.
var Languages = []string{"en", "pt-BR"}

var (
	bundle        *i18n.Bundle
	matcher       language.Matcher
	defaultLocal  *i18n.Localizer
	currentLocale string = "en"
)

type localizerKey struct{}

type languageKey struct{}

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	tags := make([]language.Tag, 0, len(Languages))
	for _, locale := range Languages {
		tags = append(tags, language.MustParse(locale))
		data, err := localesFS.ReadFile("locales/" + locale + ".json")
		if err != nil {
			log.Printf("i18n: failed to read locale file %s: %v", locale, err)
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, locale+".json"); err != nil {
			log.Printf("i18n: failed to parse locale file %s: %v", locale, err)
		}
	}
	matcher = language.NewMatcher(tags)
	defaultLocal = i18n.NewLocalizer(bundle, currentLocale)
}

// HasLanguage reports whether lang has a message file
func HasLanguage(lang string) bool {
	for _, l := range Languages {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}

// SetLanguage sets the language used when a request does not ask for one
func SetLanguage(lang string) {
	currentLocale = lang
	defaultLocal = i18n.NewLocalizer(bundle, currentLocale)
}

// GetLocalizerFromContext retrieves the localizer from context, or returns default
func GetLocalizerFromContext(ctx context.Context) *i18n.Localizer {
	if ctx == nil {
		return defaultLocal
	}
	if localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return defaultLocal
}

// LanguageFromContext returns the language negotiated for the request
func LanguageFromContext(ctx context.Context) string {
	if ctx != nil {
		if lang, ok := ctx.Value(languageKey{}).(string); ok {
			return lang
		}
	}
	return currentLocale
}

// WithLanguage stores the negotiated language and its localizer in ctx
func WithLanguage(ctx context.Context, lang string) context.Context {
	ctx = context.WithValue(ctx, languageKey{}, lang)
	return context.WithValue(ctx, localizerKey{}, i18n.NewLocalizer(bundle, lang, currentLocale))
}

// RequestLanguage picks the best supported language from the
// Accept-Language header, falling back to the configured one.
func RequestLanguage(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return currentLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return currentLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return currentLocale
	}
	return Languages[index]
}

// LocalizeWithContext translates a message using the localizer from context
func LocalizeWithContext(ctx context.Context, messageID string) string {
	return localize(GetLocalizerFromContext(ctx), messageID, nil)
}

// LocalizeWithContextAndData translates a message with template data using context
func LocalizeWithContextAndData(ctx context.Context, messageID string, data map[string]interface{}) string {
	return localize(GetLocalizerFromContext(ctx), messageID, data)
}

// localize falls back to the message ID when there is no translation
func localize(localizer *i18n.Localizer, messageID string, data map[string]interface{}) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
