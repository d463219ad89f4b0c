package validator

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordStrengthConfig describes the password policy.
type PasswordStrengthConfig struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigits    bool
	RequireSpecial   bool
}

// DefaultPasswordStrength requires 8-72 characters with upper and lower case
// letters, a digit and a special character. 72 is the bcrypt input limit.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        72,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigits:    true,
		RequireSpecial:   true,
	}
}

func StrongPassword(field, value string, config PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < config.MinLength || (config.MaxLength > 0 && len(value) > config.MaxLength) {
				return false
			}

			var hasUpper, hasLower, hasDigit, hasSpecial bool
			for _, r := range value {
				switch {
				case unicode.IsUpper(r):
					hasUpper = true
				case unicode.IsLower(r):
					hasLower = true
				case unicode.IsDigit(r):
					hasDigit = true
				case unicode.IsPunct(r) || unicode.IsSymbol(r):
					hasSpecial = true
				}
			}

			return (!config.RequireUppercase || hasUpper) &&
				(!config.RequireLowercase || hasLower) &&
				(!config.RequireDigits || hasDigit) &&
				(!config.RequireSpecial || hasSpecial)
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("password must be %d-%d characters with upper and lower case letters, a digit and a special character", config.MinLength, config.MaxLength),
		},
	}
}

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "password!": true,
	"qwerty123": true, "qwerty12": true, "letmein": true, "welcome1": true,
	"admin123": true, "iloveyou": true, "12345678": true, "123456789": true,
	"p@ssw0rd": true, "passw0rd": true, "trustno1": true, "sunshine": true,
}

// NotCommonPassword rejects passwords from a short list of frequently leaked ones.
func NotCommonPassword(field, value string) Rule {
	return Rule{
		Check: func() bool { return !commonPasswords[strings.ToLower(value)] },
		Error: ValidationError{Field: field, Message: "password is too common, please choose a different one"},
	}
}
