package validator

import (
	"strconv"
	"strings"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags.
const (
	// TagTrimMin checks the rune length of a string after trimming spaces.
	TagTrimMin = "trimmin"
	// TagTrimMax checks the rune length of a string after trimming spaces.
	TagTrimMax = "trimmax"
)

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagTrimMin, func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && trimmedLen(fl) >= n
	})
	_ = v.validate.RegisterValidation(TagTrimMax, func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && trimmedLen(fl) <= n
	})

	messages := map[string]map[string]string{
		LangEN: {
			TagTrimMin: "{0} must be at least {1} characters long",
			TagTrimMax: "{0} must be at most {1} characters long",
		},
		LangRU: {
			TagTrimMin: "{0} должен содержать минимум {1} символа",
			TagTrimMax: "{0} должен содержать максимум {1} символов",
		},
	}
	for lang, m := range messages {
		trans := v.trans[lang]
		for tag, msg := range m {
			registerTranslation(v.validate, trans, tag, msg)
		}
	}
}

func trimmedLen(fl validator.FieldLevel) int {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, message string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return t
		},
	)
}
