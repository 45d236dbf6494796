package middleware

import (
	"reflect"
	"strings"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the binding validator with custom tags
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	// operation_type restricts a field to the closed operation enumeration
	_ = v.RegisterValidation("operation_type", func(fl validator.FieldLevel) bool {
		return dashboard.OperationType(fl.Field().String()).IsValid()
	})
}
