package models

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used whenever a requested language is not supported.
const DefaultLanguage = "en"

// LanguageOption is a supported post language.
type LanguageOption struct {
	Code string
	Name string
}

// Languages lists the supported post languages in menu order.
var Languages = []LanguageOption{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "ro", Name: "Romanian"},
}

// NormalizeLanguage reduces a BCP 47 tag ("pt-BR", "EN") to a supported base
// code. The second result is false when the code had to fall back to English.
func NormalizeLanguage(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage, false
	}
	base, _ := tag.Base()
	for _, l := range Languages {
		if l.Code == base.String() {
			return l.Code, true
		}
	}
	return DefaultLanguage, false
}

// LanguageName returns the English name of a supported code.
func LanguageName(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return "English"
}
