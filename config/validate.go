package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"ad-monitor/filter"
)

// ValidationError lists the fields of a document that failed validation.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Errors[field])
	}
	return strings.Join(messages, "; ")
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	validatorOnce     sync.Once
	documentValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("filterlevel", func(fl validator.FieldLevel) bool {
			return IsValidLevelName(fl.Field().String())
		})
		v.RegisterStructValidation(validateURLFilters, Config{})
		documentValidator = v
	})
	return documentValidator
}

// Validate checks a document before it is applied or saved.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Errors: map[string]string{"config": "config is required"}}
	}
	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	return newValidationError(verrs)
}

// IsValidLevelName accepts level<positive integer>.
func IsValidLevelName(name string) bool {
	if !filter.IsLevelName(name) {
		return false
	}
	return strings.Trim(strings.TrimPrefix(name, "level"), "0") != ""
}

// IsMonitorableURL accepts absolute URLs with a scheme and host.
func IsMonitorableURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func validateURLFilters(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	for _, u := range cfg.URLs() {
		if !IsMonitorableURL(u) {
			sl.ReportError(u, "url_filters["+u+"]", "URLFilters", "monitored_url", "")
			continue
		}
		for name := range cfg.URLFilters[u] {
			if !IsValidLevelName(name) {
				sl.ReportError(name, fmt.Sprintf("url_filters[%s].%s", u, name), "URLFilters", "filterlevel", u)
			}
		}
	}
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "monitored_url":
			out[field] = fmt.Sprintf("Invalid URL format: %v", err.Value())
		case "filterlevel":
			out[field] = fmt.Sprintf("Invalid filter level name '%v' for URL '%s'", err.Value(), err.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &ValidationError{Errors: out}
}
