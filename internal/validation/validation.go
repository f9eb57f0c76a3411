package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	personNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phoneRe      = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	plateRe      = regexp.MustCompile(`^[A-Z0-9\-\s]+$`)
)

// labels maps JSON field names to the wording used in messages.
var labels = map[string]string{
	"email":           "Email",
	"password":        "Password",
	"firstName":       "First name",
	"lastName":        "Last name",
	"phone":           "Phone number",
	"currentPassword": "Current password",
	"newPassword":     "New password",
	"confirmPassword": "Password confirmation",
	"brand":           "Brand",
	"model":           "Model",
	"year":            "Year",
	"transmission":    "Transmission",
	"fuelType":        "Fuel type",
	"seats":           "Seats",
	"pricePerDay":     "Price per day",
	"description":     "Description",
	"features":        "Features",
	"licensePlate":    "License plate",
	"status":          "Status",
	"page":            "Page",
	"limit":           "Limit",
	"minPrice":        "Minimum price",
	"maxPrice":        "Maximum price",
	"search":          "Search",
	"sortBy":          "Sort field",
	"sortOrder":       "Sort order",
	"carId":           "Car ID",
}

// ValidationError is a rejected request. Message is the first field message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("personname", matches(personNameRe))
	_ = v.RegisterValidation("phone", matches(phoneRe))
	_ = v.RegisterValidation("plate", matches(plateRe))
	_ = v.RegisterValidation("maxyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(MaxCarYear())
	})
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// MaxCarYear is the newest model year accepted for a car.
func MaxCarYear() int {
	return time.Now().Year() + 1
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		msg := message(fe)
		if verr.Message == "" {
			verr.Message = msg
		}
		if _, seen := verr.Fields[fe.Field()]; !seen {
			verr.Fields[fe.Field()] = msg
		}
	}
	return verr
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if strings.HasPrefix(field, "features[") {
		return "Each feature cannot exceed 100 characters"
	}
	label, ok := labels[field]
	if !ok {
		label = field
	}

	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		numeric = true
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please provide a valid email address"
	case "min":
		if numeric {
			if field == "year" {
				return "Year must be " + fe.Param() + " or later"
			}
			return fmt.Sprintf("%s must be at least %s", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Cannot have more than %s %s", fe.Param(), strings.ToLower(label))
		}
		if numeric {
			return fmt.Sprintf("%s cannot exceed %s", label, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "gt":
		return label + " must be a positive number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return "Password confirmation does not match"
	case "personname":
		return label + " can only contain letters and spaces"
	case "phone":
		return "Please provide a valid phone number"
	case "plate":
		return "License plate can only contain uppercase letters, numbers, hyphens, and spaces"
	case "maxyear":
		return fmt.Sprintf("Year cannot be later than %d", MaxCarYear())
	}
	return label + " is invalid"
}
