package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func (v *Validator) registerCustomTranslations() {
	if trans := v.GetTranslator(LangEN); trans != nil {
		registerTranslations(v.validate, trans, map[string]string{
			TagCallbackURL:  "{0} must be an absolute http or https URL",
			TagTier:         "{0} must be one of free, basic, pro or enterprise",
			TagNoWhitespace: "{0} must not contain whitespace characters",
			TagTrimmed:      "{0} must not have leading or trailing spaces",
		})
	}
	if trans := v.GetTranslator(LangZH); trans != nil {
		registerTranslations(v.validate, trans, map[string]string{
			TagCallbackURL:  "{0}必须是完整的 http 或 https 地址",
			TagTier:         "{0}必须是 free、basic、pro 或 enterprise",
			TagNoWhitespace: "{0}不能包含空白字符",
			TagTrimmed:      "{0}不能有前导或尾随空格",
		})
	}
}

func registerTranslations(validate *validator.Validate, trans ut.Translator, messages map[string]string) {
	for tag, message := range messages {
		_ = validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			},
		)
	}
}
