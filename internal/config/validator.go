package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "capacity.ranges[0].label")
	Tag     string      // Validation tag that failed (e.g., "required", "range_order")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// validate is the package-level validator instance.
var validate *validator.Validate

// init initializes the validator with custom validations.
func init() {
	validate = validator.New()

	validate.RegisterValidation("timezone", validateTimezone)
	validate.RegisterValidation("capacity_label", validateCapacityLabel)
}

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	// Run custom business logic validations
	if errs := validateRanges(cfg); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateTimezone is a custom validator for timezone strings.
func validateTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" {
		return true // Empty is allowed, will use default
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// validateCapacityLabel rejects labels that are blank or span lines.
func validateCapacityLabel(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	return strings.TrimSpace(label) != "" && !strings.ContainsAny(label, "\r\n")
}

// validateRanges checks range bounds and label uniqueness.
// Overlaps and gaps are allowed and reported by the ranges command.
func validateRanges(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	seen := make(map[string]int, len(cfg.Capacity.Ranges))
	for i, r := range cfg.Capacity.Ranges {
		field := fmt.Sprintf("capacity.ranges[%d]", i)

		if r.Min > r.Max {
			errors = append(errors, &ValidationError{
				Field:   field,
				Tag:     "range_order",
				Value:   fmt.Sprintf("min=%v, max=%v", r.Min, r.Max),
				Message: fmt.Sprintf("min (%v) must be less than or equal to max (%v)", r.Min, r.Max),
			})
		}
		if r.Min < 0 {
			errors = append(errors, &ValidationError{
				Field:   field + ".min",
				Tag:     "gte",
				Value:   r.Min,
				Message: "value must be greater than or equal to 0",
			})
		}

		if r.Label == "" {
			continue
		}
		if prev, ok := seen[r.Label]; ok {
			errors = append(errors, &ValidationError{
				Field:   field + ".label",
				Tag:     "unique",
				Value:   r.Label,
				Message: fmt.Sprintf("duplicate label %q (also used by range %d)", r.Label, prev),
			})
			continue
		}
		seen[r.Label] = i
	}

	return errors
}

// formatFieldName converts the validator field namespace to a user-friendly format.
// Example: "Config.Capacity.Ranges[0].Label" -> "capacity.ranges[0].label"
func formatFieldName(namespace string) string {
	// Remove the root struct name (e.g., "Config.")
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // Remove "Config"
	}

	// Convert to lowercase and join
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}

	return strings.Join(parts, ".")
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("at least %s item(s) required", fe.Param())
	case "gte":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	case "dive":
		return fmt.Sprintf("invalid value in list: %v", fe.Value())
	case "timezone":
		return fmt.Sprintf("invalid timezone: %v", fe.Value())
	case "capacity_label":
		return fmt.Sprintf("invalid range label: %q", fe.Value())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}
