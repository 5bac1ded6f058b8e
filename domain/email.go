package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidEmail checks the syntax of an address. Empty is never valid.
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
