package http

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidations adds the notblank rule and JSON field naming to gin's
// shared validator. The engine is process-wide, so this runs once.
func registerValidations() error {
	registerOnce.Do(func() {
		registerErr = installValidations(binding.Validator.Engine())
	})
	return registerErr
}

func installValidations(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", engine)
	}
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return fmt.Errorf("registering notblank: %w", err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// fieldMessages maps field name to the message shown for any rule it fails.
var fieldMessages = map[string]string{
	"question": "Question cannot be blank",
}

// ValidationError is the 400 body for rejected requests.
type ValidationError struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func newValidationError(verrs validator.ValidationErrors) ValidationError {
	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		msg, ok := fieldMessages[name]
		if !ok {
			msg = name + " is invalid"
		}
		fields[name] = msg
		msgs = append(msgs, msg)
	}
	return ValidationError{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusBadRequest,
		Error:     "Validation error",
		Message:   strings.Join(msgs, "; "),
		Fields:    fields,
	}
}

func newMalformedBodyError() ValidationError {
	return ValidationError{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusBadRequest,
		Error:     "Validation error",
		Message:   "Request body must be a JSON object with a question field",
	}
}
