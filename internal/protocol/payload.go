package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Same tags gin binds with, so one struct definition serves both sides.
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode unmarshals a work item payload into req and validates required fields.
func Decode(item WorkItem, req any) error {
	dec := json.NewDecoder(bytes.NewReader(item.Payload))
	if err := dec.Decode(req); err != nil {
		return errs.ValidationError("invalid payload: " + err.Error())
	}
	return Validate(req)
}

// Validate checks the binding tags of req.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return errs.ValidationError("invalid fields: " + strings.Join(fields, ", "))
	}
	return errs.ValidationError(err.Error())
}

// ParseDate accepts the request date format, with or without zero padding (2024-08-1).
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-1-2", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errs.ValidationError(fmt.Sprintf("%s: invalid date %q", field, s))
	}
	return t, nil
}

var (
	boolType   = reflect.TypeOf(false)
	amountType = reflect.TypeOf(float64(0))
	textType   = reflect.TypeOf("")
)
