package validation

import (
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	UsernameMinLen = 4
	UsernameMaxLen = 20
	PasswordMinLen = 8
	PasswordMaxLen = 20

	// PasswordTag is the struct tag name of the password policy rule.
	PasswordTag = "password_policy"
)

var (
	ErrUsernameLength = errors.New("username must be between 4 and 20 characters")
	ErrPasswordLength = errors.New("password must be between 8 and 20 characters")
	ErrPasswordWeak   = errors.New("password must contain at least two of: lowercase, uppercase, digit, special character")
)

func CheckUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLen || n > UsernameMaxLen {
		return ErrUsernameLength
	}
	return nil
}

// CheckPassword enforces length 8-20 and at least two character classes.
func CheckPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLen || n > PasswordMaxLen {
		return ErrPasswordLength
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, special} {
		if present {
			classes++
		}
	}
	if classes < 2 {
		return ErrPasswordWeak
	}
	return nil
}

func passwordPolicy(fl validator.FieldLevel) bool {
	return CheckPassword(fl.Field().String()) == nil
}

// Register installs the custom rules on gin's validator engine.
func Register() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterOn(engine)
}

func RegisterOn(v *validator.Validate) error {
	return errors.Wrap(v.RegisterValidation(PasswordTag, passwordPolicy), "register password policy")
}

// Message turns a binding error into a client-facing sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "malformed request body"
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Username":
		if fe.Tag() == "required" {
			return "username is required"
		}
		return ErrUsernameLength.Error()
	case "Password":
		switch fe.Tag() {
		case "required":
			return "password is required"
		case PasswordTag:
			value, _ := fe.Value().(string)
			if err := CheckPassword(value); err != nil {
				return err.Error()
			}
		}
		return ErrPasswordLength.Error()
	}
	return fe.Field() + " is invalid"
}
