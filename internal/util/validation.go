package util

import "github.com/go-playground/validator/v10"

// Validate is the shared validator instance; struct tag rules are
// compiled once and reused across requests.
var Validate *validator.Validate

func InitValidator() {
	Validate = validator.New()
}

func ValidateStruct(s any) error {
	return Validate.Struct(s)
}
