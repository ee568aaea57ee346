// Package validation turns untyped form input into typed, constraint
// satisfying models. Constraints are declared as validate tags on the model
// structs; this package coerces the raw input, runs the validator and reports
// field-scoped violations.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldViolation is a single failed constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails its schema. It never reaches
// the network.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the violations keyed by field path. When a field has more
// than one violation the first one wins.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks the validate tags of an already typed value.
func Struct(v any) error {
	return toValidationError(instance().Struct(v), nil)
}

// collector gathers coercion failures before the tag checks run.
type collector struct {
	violations []FieldViolation
	seen       map[string]bool
}

func newCollector() *collector {
	return &collector{seen: map[string]bool{}}
}

func (c *collector) add(field, message string) {
	c.violations = append(c.violations, FieldViolation{Field: field, Message: message})
	c.seen[field] = true
}

// finish merges the validator result with coercion failures. Tag violations
// on a field that already failed coercion are dropped.
func (c *collector) finish(err error) error {
	all := append([]FieldViolation{}, c.violations...)
	if tagErr := toValidationError(err, c.seen); tagErr != nil {
		ve, ok := AsValidationError(tagErr)
		if !ok {
			return tagErr
		}
		all = append(all, ve.Violations...)
	}
	if len(all) == 0 {
		return nil
	}
	return &ValidationError{Violations: all}
}

func toValidationError(err error, skip map[string]bool) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if skip[field] {
			continue
		}
		out.Violations = append(out.Violations, FieldViolation{Field: field, Message: message(fe)})
	}
	sort.SliceStable(out.Violations, func(i, j int) bool {
		return out.Violations[i].Field < out.Violations[j].Field
	})
	if len(out.Violations) == 0 {
		return nil
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace:
// "Product.sizes[1].price" becomes "sizes[1].price".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
