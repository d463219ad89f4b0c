// Package validator provides small composable validation rules.
//
// Each rule pairs a check with the error reported when the check fails.
// Apply evaluates all rules and returns ValidationErrors listing every
// failed field, so callers can report all problems in one response.
//
//	err := validator.Apply(
//		validator.ValidEmail("email", in.Email),
//		validator.MinLenString("username", in.Username, 3),
//		validator.StrongPassword("password", in.Password, validator.DefaultPasswordStrength()),
//	)
package validator
