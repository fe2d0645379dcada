package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

var (
	packageCategories = []string{"photography", "videography", "combo", "editing"}
	addOnCategories   = []string{"equipment", "personnel", "editing", "other"}
	bookingStatuses   = []string{"pending", "approved", "rejected", "completed"}
	downloadTypes     = []string{"photos", "videos", "raw", "album", "other"}
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Money fields compare as numbers so gte/lte tags work on them
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("package_category", oneOf(packageCategories))
	validate.RegisterValidation("addon_category", oneOf(addOnCategories))
	validate.RegisterValidation("booking_status", oneOf(bookingStatuses))
	validate.RegisterValidation("download_type", oneOf(downloadTypes))
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := fieldPath(err)
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "uuid":
			errors[field] = "Invalid identifier"
		case "datetime":
			errors[field] = "Invalid format, expected " + err.Param()
		case "package_category":
			errors[field] = "Invalid category. Must be: " + strings.Join(packageCategories, ", ")
		case "addon_category":
			errors[field] = "Invalid category. Must be: " + strings.Join(addOnCategories, ", ")
		case "booking_status":
			errors[field] = "Invalid status. Must be: " + strings.Join(bookingStatuses, ", ")
		case "download_type":
			errors[field] = "Invalid link type. Must be: " + strings.Join(downloadTypes, ", ")
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// fieldPath drops the top-level struct name from the namespace,
// so nested fields read as "add_ons[0].quantity".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
