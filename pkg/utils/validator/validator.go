// Package validator wraps go-playground/validator with translated messages
// and the custom tags used by request structs.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"

	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// Supported languages.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator validates structs and translates failures.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

var (
	global     *Validator
	globalOnce sync.Once
)

// Global returns the process-wide validator.
func Global() *Validator {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates a Validator with built-in and custom translations registered.
func New() *Validator {
	enLocale := en.New()
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		uni:      ut.New(enLocale, enLocale, zh.New()),
	}

	// 使用 json/form tag 作为字段名
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	if trans := v.GetTranslator(LangEN); trans != nil {
		_ = entranslations.RegisterDefaultTranslations(v.validate, trans)
	}
	if trans := v.GetTranslator(LangZH); trans != nil {
		_ = zhtranslations.RegisterDefaultTranslations(v.validate, trans)
	}

	v.registerCustomRules()
	v.registerCustomTranslations()
	return v
}

// GetTranslator returns the translator for lang, or nil.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	trans, found := v.uni.GetTranslator(lang)
	if !found {
		return nil
	}
	return trans
}

// Struct validates s and returns the raw validator error.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Validate validates s and converts failures to ErrInvalidParam with the
// first translated message.
func (v *Validator) Validate(s any) error {
	return v.ValidateWithLang(s, LangEN)
}

// ValidateWithLang is Validate with an explicit message language.
func (v *Validator) ValidateWithLang(s any, lang string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errno.ErrInvalidParam.WithCause(err)
	}

	msg := verrs[0].Error()
	if trans := v.GetTranslator(lang); trans != nil {
		msg = verrs[0].Translate(trans)
	}
	return errno.ErrInvalidParam.WithMessage(msg).WithCause(err)
}

// Translate returns every field error of err as field -> message.
func (v *Validator) Translate(err error, lang string) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	trans := v.GetTranslator(lang)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if trans != nil {
			out[fe.Field()] = fe.Translate(trans)
		} else {
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}
