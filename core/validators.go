package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/bn"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/volatiletech/null/v8"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
)

// LocalizedText is a validation message in every supported language.
// {0} is replaced by the field name and {1} by the tag param.
type LocalizedText struct {
	EN string
	BN string
}

var (
	// custom validation tags & texts
	mobileTag   = "mobile"
	mobileText  = LocalizedText{EN: "enter a valid mobile number", BN: "সঠিক মোবাইল নম্বর লিখুন"}
	mobileRegex = regexp.MustCompile(`^\+?\p{Nd}[\p{Nd}\- ]{5,19}$`)

	// overrides & bangla renditions of the builtin tags we use
	builtinTexts = map[string]LocalizedText{
		"required":      {EN: "this field is required", BN: "এই ঘরটি পূরণ করা আবশ্যক"},
		"required_with": {EN: "this field is required", BN: "এই ঘরটি পূরণ করা আবশ্যক"},
		"email":         {EN: "enter a valid email address", BN: "সঠিক ইমেইল ঠিকানা লিখুন"},
		"eqfield":       {EN: "{0} must be equal to {1}", BN: "{0} অবশ্যই {1} এর সমান হতে হবে"},
		"min":           {EN: "{0} must be at least {1} characters in length", BN: "{0} কমপক্ষে {1} অক্ষরের হতে হবে"},
		"max":           {EN: "{0} must be a maximum of {1} characters in length", BN: "{0} সর্বোচ্চ {1} অক্ষরের হতে পারে"},
		"oneof":         {EN: "{0} must be one of [{1}]", BN: "{0} অবশ্যই [{1}] এর একটি হতে হবে"},
		"uuid":          {EN: "{0} must be a valid UUID", BN: "{0} সঠিক UUID নয়"},
	}
)

// NewUniversalTranslator returns a translator knowing every supported language, english first.
func NewUniversalTranslator() *ut.UniversalTranslator {
	_en := en.New()
	return ut.New(_en, _en, bn.New())
}

// Translator returns the translator for `lang`; english when the language is unknown.
func Translator(uni *ut.UniversalTranslator, lang i18n.Language) ut.Translator {
	trans, _ := uni.GetTranslator(lang.String())
	return trans
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator) {
	_ = en_translations.RegisterDefaultTranslations(validate, Translator(uni, i18n.EN))

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// optional columns are validated through their string value
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if ns, ok := field.Interface().(null.String); ok && ns.Valid {
			return ns.String
		}
		return ""
	}, null.String{})

	// register custom validators
	_ = validate.RegisterValidation(mobileTag, mobileValidation)
	RegisterCustomTranslation(validate, uni, mobileTag, mobileText)

	for tag, text := range builtinTexts {
		RegisterCustomTranslation(validate, uni, tag, text, true)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag, in every language.
func RegisterCustomTranslation(validate *validator.Validate, uni *ut.UniversalTranslator, tag string, text LocalizedText, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	for lang, txt := range map[i18n.Language]string{i18n.EN: text.EN, i18n.BN: text.BN} {
		txt := txt
		// nothing is registered for bangla beforehand
		o := ovrd || lang == i18n.BN
		_ = validate.RegisterTranslation(
			tag, Translator(uni, lang),
			func(t ut.Translator) error { return t.Add(tag, txt, o) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field(), fe.Param())
				return s
			},
		)
	}
}

// Custom Global Validators

// mobileValidation accepts phone-like strings: optional leading +, digits (any script), spaces and dashes.
func mobileValidation(fl validator.FieldLevel) bool {
	return mobileRegex.MatchString(fl.Field().String())
}
