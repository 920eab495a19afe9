// Package i18n resolves the shopper's display language for each request.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/moaz267/furniture/internal/domain"
)

const CookieName = "lang"

type contextKey struct{}

// Middleware picks the language from, in order, the "lang" query parameter,
// the "lang" cookie and the Accept-Language header, defaulting to English.
// An explicit query choice is remembered in the cookie.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := domain.LanguageEnglish

		if q, ok := domain.ParseLanguage(r.URL.Query().Get("lang")); ok {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    string(q),
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
				MaxAge:   60 * 60 * 24 * 365,
			})
		} else if c, err := r.Cookie(CookieName); err == nil {
			if l, ok := domain.ParseLanguage(c.Value); ok {
				lang = l
			}
		} else if l, ok := fromAcceptLanguage(r.Header.Get("Accept-Language")); ok {
			lang = l
		}

		w.Header().Set("Content-Language", string(lang))
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}

var (
	supported = []domain.Language{domain.LanguageEnglish, domain.LanguageArabic}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Arabic})
)

// fromAcceptLanguage returns the supported language the client weighs
// highest. Tags are tried in descending quality order.
func fromAcceptLanguage(header string) (domain.Language, bool) {
	if header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	for _, tag := range tags {
		if _, index, confidence := matcher.Match(tag); confidence != language.No {
			return supported[index], true
		}
	}
	return "", false
}

func WithLanguage(ctx context.Context, lang domain.Language) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

func FromContext(ctx context.Context) domain.Language {
	if lang, ok := ctx.Value(contextKey{}).(domain.Language); ok {
		return lang
	}
	return domain.LanguageEnglish
}
