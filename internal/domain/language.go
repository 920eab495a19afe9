package domain

import "strings"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// ParseLanguage accepts a language tag such as "ar", "ar-EG" or "en-US".
func ParseLanguage(tag string) (Language, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	switch Language(tag) {
	case LanguageEnglish:
		return LanguageEnglish, true
	case LanguageArabic:
		return LanguageArabic, true
	}
	return "", false
}

// Pick returns the Arabic text for Arabic readers when it is present and the
// English text otherwise.
func (l Language) Pick(en, ar string) string {
	if l == LanguageArabic && ar != "" {
		return ar
	}
	return en
}
