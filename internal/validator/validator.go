package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"familytree/internal/model"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so errors match what clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Custom validators
	v.RegisterValidation("relationship", validateRelationship)
	v.RegisterValidation("gender", validateGender)
	v.RegisterStructValidation(validateLifespan, model.Member{})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func validateRelationship(fl validator.FieldLevel) bool {
	return model.Relationship(fl.Field().String()).Valid()
}

func validateGender(fl validator.FieldLevel) bool {
	g := model.Gender(fl.Field().String())
	for _, known := range model.Genders {
		if g == known {
			return true
		}
	}
	return false
}

// validateLifespan rejects a death date before the birth date. Malformed
// dates are left to the datetime tag.
func validateLifespan(sl validator.StructLevel) {
	m := sl.Current().Interface().(model.Member)
	if m.BirthDate == "" || m.DeathDate == "" {
		return
	}

	birth, err := time.Parse(dateLayout, m.BirthDate)
	if err != nil {
		return
	}
	death, err := time.Parse(dateLayout, m.DeathDate)
	if err != nil {
		return
	}

	if death.Before(birth) {
		sl.ReportError(m.DeathDate, "deathDate", "DeathDate", "after_birth", "")
	}
}

// FieldErrors flattens a validation error into field name to message.
// It returns nil for errors that did not come from validation.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "relationship":
		return "is not a known relationship"
	case "gender":
		return "must be Male, Female or Other"
	case "after_birth":
		return "must not be before the birth date"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
