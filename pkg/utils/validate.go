package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their wire names so messages match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	// effcode is the shape of an effectivity or configuration code: up to 8 letters or digits
	_ = v.RegisterValidation("effcode", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})

	return v
}

// Validate checks value's validate tags and returns it unchanged.
func Validate[T any](value T) (T, error) {
	if err := validate.Struct(value); err != nil {
		return value, describeValidation(err)
	}
	return value, nil
}

func ValidateValue(value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		problems = append(problems, fmt.Sprintf("%s fails rule '%s' (got %v)", field, rule, fe.Value()))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(problems, "; "))
}
