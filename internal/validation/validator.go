package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format accepted for budget periods
const DateLayout = "2006-01-02"

// MaxMoneyPlaces is the number of decimal places stored for currency amounts
const MaxMoneyPlaces = 2

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("positive_money", validatePositiveMoney)
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("notblank", validateNotBlank)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s and converts tag failures into FieldErrors
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return FieldErrorsFromValidator(validationErrors)
	}
	return err
}

// FieldErrorsFromValidator maps each failed field to a readable message
func FieldErrorsFromValidator(errs validator.ValidationErrors) FieldErrors {
	fieldErrors := FieldErrors{}
	for _, fe := range errs {
		fieldErrors.Add(fe.Field(), messageForTag(fe))
	}
	return fieldErrors
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return RequiredMessage
	case "email":
		return "Enter a valid email address."
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "money":
		return fmt.Sprintf("Must be a decimal amount with at most %d decimal places.", MaxMoneyPlaces)
	case "positive_money":
		return "Must be greater than zero."
	case "date":
		return "Date has wrong format. Use YYYY-MM-DD."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

// validateMoney accepts decimal strings with at most two decimal places
func validateMoney(fl validator.FieldLevel) bool {
	_, ok := parseMoney(fl.Field())
	return ok
}

// validatePositiveMoney accepts money strictly greater than zero
func validatePositiveMoney(fl validator.FieldLevel) bool {
	amount, ok := parseMoney(fl.Field())
	return ok && amount.IsPositive()
}

func validateDate(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

func parseMoney(field reflect.Value) (decimal.Decimal, bool) {
	var raw string
	switch field.Kind() {
	case reflect.String:
		raw = field.String()
	case reflect.Float32, reflect.Float64:
		raw = decimal.NewFromFloat(field.Float()).String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(field.Int()), true
	default:
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, false
	}
	if -amount.Exponent() > MaxMoneyPlaces && !amount.Equal(amount.Round(MaxMoneyPlaces)) {
		return decimal.Zero, false
	}
	return amount, true
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t.UTC(), nil
}
