package validator

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	questionCodePattern  = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,31}$`)
	criterionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
)

var (
	// trans is the singleton English translator for validation errors.
	trans ut.Translator
	once  sync.Once
)

// Setup registers the validator with English translations and the survey
// tags on Gin's binding engine. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}

		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// Register English translations.
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		en_translations.RegisterDefaultTranslations(v, trans)

		registerPattern(v, "question_code", questionCodePattern, "{0} must be an upper-case question code such as S002")
		registerPattern(v, "criterion_name", criterionNamePattern, "{0} must be a lower-case criterion name such as ease_of_use")
	})
}

func registerPattern(v *govalidator.Validate, tag string, re *regexp.Regexp, msg string) {
	_ = v.RegisterValidation(tag, func(fl govalidator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	_ = v.RegisterTranslation(tag, trans,
		func(u ut.Translator) error {
			return u.Add(tag, msg, true)
		},
		func(u ut.Translator, fe govalidator.FieldError) string {
			t, _ := u.T(tag, fe.Field())
			return t
		},
	)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error, bad valid_response kind).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Struct validates v with the binding rules outside of a request, for
// payloads that arrive over a WebSocket. Field messages are joined in
// field order.
func Struct(v interface{}) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		fields := TranslateErrors(err)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		msgs := make([]string, 0, len(names))
		for _, name := range names {
			msgs = append(msgs, fields[name])
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
