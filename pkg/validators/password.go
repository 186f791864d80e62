// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import "errors"

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrUsernameInvalid  = errors.New("username must be 3 to 50 characters of letters, digits, '_' or '-'")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	return nil
}

func UsernameValidator(u string) error {
	if len(u) < 3 || len(u) > 50 {
		return ErrUsernameInvalid
	}

	for _, r := range u {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return ErrUsernameInvalid
		}
	}

	return nil
}
