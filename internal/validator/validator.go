// Package validator collects per-field problems with a request body.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var EmailRX = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{
		Errors: make(map[string]string),
	}
}

// ToError renders the collected problems as a JSON object.
func (v *Validator) ToError() error {
	if v == nil {
		return errors.New("")
	}
	data, err := json.Marshal(v.Errors)
	if err != nil {
		return err
	}
	return errors.New(string(data))
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) != 0
}

// CheckCond records msg under key unless cond holds. The first message for a
// key wins.
func (v *Validator) CheckCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.Errors[key]; !ok {
		v.Errors[key] = msg
	}
}

func (v *Validator) CheckEmail(email string) {
	v.CheckCond(email != "", "email", "must be provided")
	v.CheckCond(EmailRX.MatchString(email), "email", "must be a valid email address")
}

func (v *Validator) CheckPassword(password string) {
	v.CheckCond(password != "", "password", "must be provided")
	v.CheckCond(len(password) >= 8, "password", "must be at least 8 characters long")
	v.CheckCond(len(password) <= 72, "password", "must be at most 72 characters long")
}

// CheckStruct runs the `validate` tags of s and records one message per
// failing field, keyed by its json name.
func (v *Validator) CheckStruct(s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		v.CheckCond(false, "body", err.Error())
		return
	}
	for _, fe := range verrs {
		v.CheckCond(false, fe.Field(), message(fe))
	}
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "hexcolor":
		return "must be a hex color like #FF6B6B"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
