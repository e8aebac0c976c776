package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

var whatsappPattern = regexp.MustCompile(`^https?://(wa\.me|chat\.whatsapp\.com)/.+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
		return whatsappPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		day := fl.Field().String()
		for _, d := range models.Weekdays {
			if d == day {
				return true
			}
		}
		return false
	})
	v.RegisterValidation("monthdays", func(fl validator.FieldLevel) bool {
		_, err := ParseMonthDays(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.TimeLayout, fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})
	return v
}

// ParseMonthDays reads a comma separated list of days of the month.
func ParseMonthDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 31 {
			return nil, fmt.Errorf("invalid day of month %q", part)
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return nil, errors.New("no days of month")
	}
	return days, nil
}

// FieldError is a validation failure on one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError carries the field errors of a refused draft.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid draft: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return models.ErrInvalidInput
}

type rule[D any] struct {
	field string
	tag   string
	value func(D) interface{}
	when  func(D) bool
}

func check[D any](d D, rules []rule[D]) []FieldError {
	var errs []FieldError
	for _, r := range rules {
		if r.when != nil && !r.when(d) {
			continue
		}
		if err := validate.Var(r.value(d), r.tag); err != nil {
			errs = append(errs, fieldError(r.field, err))
		}
	}
	return errs
}

func fieldError(field string, err error) FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{Field: field, Message: "Valor inválido."}
	}
	return FieldError{Field: field, Message: message(verrs[0])}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório."
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("Mínimo de %s caracteres.", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("Selecione pelo menos %s.", fe.Param())
		}
		return fmt.Sprintf("O valor mínimo é %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Máximo de %s caracteres.", fe.Param())
		}
		return fmt.Sprintf("O valor máximo é %s.", fe.Param())
	case "datetime":
		return "Data inválida."
	case "clock":
		return "Horário inválido."
	case "oneof":
		return "Opção inválida."
	case "whatsapp":
		return "Informe um link do WhatsApp (wa.me ou chat.whatsapp.com)."
	case "weekday":
		return "Dia da semana inválido."
	case "monthdays":
		return "Informe dias entre 1 e 31 separados por vírgula."
	case "httpurl", "url":
		return "URL inválida."
	case "latitude", "longitude":
		return "Coordenada inválida."
	}
	return "Valor inválido."
}

// coordinatesError is reported when no point was picked on the map.
var coordinatesError = FieldError{Field: "coordinates", Message: "Selecione a localização no mapa."}

func coordinateRules[D any](get func(D) *models.Coordinates) []rule[D] {
	present := func(d D) bool { return get(d) != nil }
	return []rule[D]{
		{field: "coordinates", tag: "latitude", value: func(d D) interface{} { return get(d).Latitude }, when: present},
		{field: "coordinates", tag: "longitude", value: func(d D) interface{} { return get(d).Longitude }, when: present},
	}
}

func clampStep(step, last int) int {
	if step < 1 {
		return 1
	}
	if step > last {
		return last
	}
	return step
}
