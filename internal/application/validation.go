package application

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"

	"github.com/example/drivingschool/internal/civil"
)

const (
	civilDateTag  = "civil_date"
	civilTimeTag  = "civil_time"
	afterStartTag = "after_start"
)

var customMessages = map[string]string{
	civilDateTag:  "{0} debe tener el formato AAAA-MM-DD",
	civilTimeTag:  "{0} debe tener el formato HH:mm",
	afterStartTag: "la hora de fin debe ser posterior a la hora de inicio",
}

type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var sharedValidator = sync.OnceValue(newInputValidator)

func newInputValidator() *inputValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	locale := es.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(civilDateTag, func(fl validator.FieldLevel) bool {
		_, err := civil.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(civilTimeTag, func(fl validator.FieldLevel) bool {
		_, err := civil.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	validate.RegisterStructValidation(meetingInputStructValidation, MeetingInput{})

	for tag, text := range customMessages {
		registerTranslation(validate, translator, tag, text)
	}

	return &inputValidator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	registerFn := func(trans ut.Translator) error {
		return trans.Add(tag, text, true)
	}
	translateFn := func(trans ut.Translator, fe validator.FieldError) string {
		msg, err := trans.T(tag, fe.Field())
		if err != nil {
			return text
		}
		return msg
	}
	_ = validate.RegisterTranslation(tag, translator, registerFn, translateFn)
}

// meetingInputStructValidation enforces end_time > start_time once both parse.
func meetingInputStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(MeetingInput)
	if !ok {
		return
	}
	start, err := civil.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return
	}
	end, err := civil.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return
	}
	if end.Compare(start) <= 0 {
		sl.ReportError(in.EndTime, "end_time", "EndTime", afterStartTag, "")
	}
}

// check runs struct validation and converts failures into a ValidationError.
func (v *inputValidator) check(input any) *ValidationError {
	vErr := &ValidationError{}
	err := v.validate.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("_", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fe.Translate(v.translator))
	}
	return vErr
}

func trimMeetingInput(in MeetingInput) MeetingInput {
	in.Type = strings.TrimSpace(in.Type)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Modality = strings.TrimSpace(in.Modality)
	in.Audience = strings.TrimSpace(in.Audience)
	in.Responsible = normalizeOptionalString(in.Responsible)
	in.Location = normalizeOptionalString(in.Location)
	return in
}

// validateMeetingInput checks the form and returns the parsed calendar fields.
func validateMeetingInput(in MeetingInput) (MeetingInput, civil.Date, civil.TimeOfDay, civil.TimeOfDay, *ValidationError) {
	in = trimMeetingInput(in)
	vErr := sharedValidator().check(in)
	if vErr.HasErrors() {
		return in, civil.Date{}, civil.TimeOfDay{}, civil.TimeOfDay{}, vErr
	}

	date, _ := civil.ParseDate(in.Date)
	start, _ := civil.ParseTimeOfDay(in.StartTime)
	end, _ := civil.ParseTimeOfDay(in.EndTime)
	return in, date, start, end, vErr
}

func validateParticipantInput(in ParticipantInput) (ParticipantInput, *ValidationError) {
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	return in, sharedValidator().check(in)
}

func validateAttendanceToken(token string) (string, *ValidationError) {
	vErr := &ValidationError{}
	token = strings.TrimSpace(token)
	if token == "" {
		vErr.add("token", "el enlace de asistencia es requerido")
	}
	return token, vErr
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
