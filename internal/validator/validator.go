// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var monthRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("cash_flow_type", validateCashFlowType)
		_ = v.RegisterValidation("component_type", validateComponentType)
		_ = v.RegisterValidation("month", validateMonth)
	}
}

func validateCashFlowType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateComponentType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "material", "labor", "equipment", "other":
		return true
	}
	return false
}

func validateMonth(fl validator.FieldLevel) bool {
	return monthRegex.MatchString(fl.Field().String())
}
