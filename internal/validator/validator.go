package validator

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

var (
	// custom validation tags & texts
	roleTag  = "role"
	roleText = "{0} must be one of student, instructor, editor, admin"

	videoTypeTag  = "video_type"
	videoTypeText = "{0} must be either url or file"

	phoneTag   = "phone"
	phoneText  = "{0} must be a valid international phone number"
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

	quizQuestionTag  = "quiz_question"
	quizQuestionText = "{0} must point to one of the options"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Validator validates request structs and turns failures into ValidationErrors.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New instantiates the validator with the custom tags and english messages.
func New() *Validator {
	validate := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(roleTag, roleValidation)
	_ = validate.RegisterValidation(videoTypeTag, videoTypeValidation)
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	validate.RegisterStructValidation(quizQuestionStructValidation, models.QuizQuestion{})

	v := &Validator{validate: validate, translator: translator}
	v.registerTranslation(roleTag, roleText, false)
	v.registerTranslation(videoTypeTag, videoTypeText, false)
	v.registerTranslation(phoneTag, phoneText, false)
	v.registerTranslation(quizQuestionTag, quizQuestionText, false)
	v.registerTranslation(requiredTag, requiredText, true)
	return v
}

// registerTranslation registers a message for tag; {0} is replaced by the field name.
func (v *Validator) registerTranslation(tag, text string, override bool) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns nil when it is valid.
func (v *Validator) Struct(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return v.toValidationErrors(err)
}

// Var validates a single value against tag, reporting failures under field.
func (v *Validator) Var(field string, value interface{}, tag string) ValidationErrors {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	errs := v.toValidationErrors(err)
	for i := range errs {
		errs[i].Field = field
		errs[i].Message = strings.TrimSpace(field + " " + strings.TrimSpace(errs[i].Message))
	}
	return errs
}

func (v *Validator) toValidationErrors(err error) ValidationErrors {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "invalid"}}
	}

	var errors ValidationErrors
	for _, fe := range fieldErrs {
		errors = append(errors, ValidationError{
			Field:   fieldPath(fe),
			Message: fe.Translate(v.translator),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

// fieldPath drops the top-level struct name from the namespace ("Req.modules[0].title" -> "modules[0].title").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).Validate() == nil
}

func videoTypeValidation(fl validator.FieldLevel) bool {
	return models.VideoType(fl.Field().String()).Validate() == nil
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(NormalizePhone(fl.Field().String()))
}

// quizQuestionStructValidation checks correctIndex against the options of the same question.
func quizQuestionStructValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(models.QuizQuestion)
	if len(q.Options) >= 2 && !q.HasValidAnswer() {
		sl.ReportError(q.CorrectIndex, "correctIndex", "CorrectIndex", quizQuestionTag, "")
	}
}

// NormalizePhone removes every whitespace character from a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}
