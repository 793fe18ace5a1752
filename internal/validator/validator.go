// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tally/internal/models"
	"tally/internal/period"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("year_month", validateYearMonth)
		_ = v.RegisterValidation("category_type", validateCategoryType)
	}
}

// validateYearMonth accepts a strict YYYY-MM month.
func validateYearMonth(fl validator.FieldLevel) bool {
	_, err := period.ParseMonth(fl.Field().String())
	return err == nil
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch models.CategoryType(fl.Field().String()) {
	case models.CategoryTypeIncome, models.CategoryTypeExpense:
		return true
	}
	return false
}
