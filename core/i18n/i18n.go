// Package i18n holds the UI label tables and the localized notices of the portal.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

type Language string

const (
	EN Language = "en"
	BN Language = "bn"

	Default = BN
)

var Languages = []Language{EN, BN}

var matcher = language.NewMatcher([]language.Tag{language.Bengali, language.English})

func (l Language) IsValid() bool {
	return l == EN || l == BN
}

func (l Language) String() string { return string(l) }

// Other returns the language a toggle would switch to.
func (l Language) Other() Language {
	if l == EN {
		return BN
	}
	return EN
}

// ParseLanguage returns the Language for `s`, or `fallback` when `s` is not supported.
func ParseLanguage(s string, fallback Language) Language {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if lang.IsValid() {
		return lang
	}
	// accept region variants like bn-BD or en_US
	if i := strings.IndexAny(string(lang), "-_"); i > 0 {
		if base := lang[:i]; base.IsValid() {
			return base
		}
	}
	return fallback
}

// FromAcceptLanguage picks the best supported language for an Accept-Language header value.
func FromAcceptLanguage(header string, fallback Language) Language {
	if strings.TrimSpace(header) == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	if idx == 0 {
		return BN
	}
	return EN
}
