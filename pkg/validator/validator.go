// Package validator wraps go-playground/validator with English and Russian
// error translations and the rules used by the query API.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"
)

// Language constants for i18n support.
const (
	LangEN = "en"
	LangRU = "ru"
)

// Validator wraps go-playground/validator with translators.
type Validator struct {
	validate *validator.Validate
	trans    map[string]ut.Translator
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the process wide validator.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// New creates a Validator with the default and custom rules registered.
func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		trans:    make(map[string]ut.Translator),
	}

	// 错误字段使用 json tag 名称
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, ru.New())

	enTrans, _ := uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	ruTrans, _ := uni.GetTranslator(LangRU)
	_ = ru_translations.RegisterDefaultTranslations(v.validate, ruTrans)
	v.trans[LangRU] = ruTrans

	v.registerCustomRules()
	return v
}

// Validate validates a struct and returns the raw validator error.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateWithLang validates a struct and returns translated errors, or nil.
func (v *Validator) ValidateWithLang(s interface{}, lang string) *ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return v.Translate(err, lang)
}

// Translate converts a validator error into ValidationErrors in lang.
// Errors that did not come from the validator are returned as a single entry.
func (v *Validator) Translate(err error, lang string) *ValidationErrors {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("body", "invalid", err.Error())
	}

	trans := v.GetTranslator(lang)
	result := &ValidationErrors{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Param:   fe.Param(),
			Message: fe.Translate(trans),
		})
	}
	return result
}

// GetTranslator returns the translator for lang, English when unknown.
// Accept-Language style values such as "ru-RU,ru;q=0.9" are understood.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_,;"); i > 0 {
		lang = lang[:i]
	}
	if t, ok := v.trans[lang]; ok {
		return t
	}
	return v.trans[LangEN]
}

// Engine returns the underlying validator.Validate instance.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// ValidateStruct implements gin's binding.StructValidator.
func (v *Validator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return v.validate.Struct(obj)
}

// Struct validates a struct with the global validator.
func Struct(s interface{}) error {
	return Global().Validate(s)
}

// StructWithLang validates a struct with the global validator and translates errors.
func StructWithLang(s interface{}, lang string) *ValidationErrors {
	return Global().ValidateWithLang(s, lang)
}
