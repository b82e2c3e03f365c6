package service

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// collectionPattern restricts collection names to URL and subject safe tokens.
var collectionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewValidator returns a validator that knows the "collection" and "notblank" tags
// and reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	rules := map[string]validator.Func{
		"collection": func(fl validator.FieldLevel) bool {
			return collectionPattern.MatchString(fl.Field().String())
		},
		"notblank": validators.NotBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
		}
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}
