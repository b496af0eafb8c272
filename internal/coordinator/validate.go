package coordinator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	return v
}

var messages = map[string]map[string]string{
	"title": {
		"required": "Please enter a title",
		"max":      "Title must be 500 characters or fewer",
	},
	"date": {
		"required":     "Please select a date",
		"calendardate": "Please enter a valid date",
	},
	"group_id": {
		"required": "Please select a group",
		"gt":       "Please select a group",
	},
	"name": {
		"required": "Please enter a name",
		"max":      "Name must be 255 characters or fewer",
	},
	"category_id": {
		"required": "Please select a category",
		"gt":       "Please select a category",
	},
	"description": {
		"required": "Please enter a description",
	},
	"website": {
		"url": "Please enter a valid website URL",
	},
	"contact.email": {
		"email": "Please enter a valid email address",
	},
}

func message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return "Invalid value"
}

// fieldKey is the dotted json path of the field below the draft itself,
// e.g. "contact.email".
func fieldKey(fe validator.FieldError) string {
	_, key, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return key
}

// collect runs the struct rules and returns one message per field.
func collect(draft any) (map[string]string, error) {
	fields := map[string]string{}
	if err := validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			key := fieldKey(fe)
			if _, seen := fields[key]; !seen {
				fields[key] = message(key, fe.Tag())
			}
		}
	}
	return fields, nil
}

// Validate checks a normalized draft and reports every offending field at
// once.
func Validate(d models.EventDraft) error {
	fields, err := collect(d)
	if err != nil {
		return err
	}
	if d.EndTime != nil && d.StartTime == nil {
		fields["start_time"] = "Please enter a start time before setting an end time"
	}

	if len(fields) == 0 {
		return nil
	}
	return &gateway.ValidationError{Fields: fields}
}

// ValidateResource checks a normalized resource draft. A resource needs an
// email address or a phone number.
func ValidateResource(d models.ResourceDraft) error {
	fields, err := collect(d)
	if err != nil {
		return err
	}
	if d.Contact.Email == nil && d.Contact.Phone == nil {
		fields["contact"] = "Please provide an email or phone number"
	}

	if len(fields) == 0 {
		return nil
	}
	return &gateway.ValidationError{Fields: fields}
}
