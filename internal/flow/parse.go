package flow

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Text requires non-empty text; an empty message re-prompts with msg
func Text(msg string) ParseFunc {
	return func(in Input) (any, error) {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, Invalid(msg)
		}
		return text, nil
	}
}

// Digits requires a non-negative integer written with digits only
func Digits(msg string) ParseFunc {
	return func(in Input) (any, error) {
		text := strings.TrimSpace(in.Text)
		if text == "" || strings.TrimLeft(text, "0123456789") != "" {
			return nil, Invalid(msg)
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, Invalid(msg)
		}
		return n, nil
	}
}

// Email requires a syntactically valid email address
func Email(msg string) ParseFunc {
	return validated("required,email", msg)
}

// URL requires an absolute URL
func URL(msg string) ParseFunc {
	return validated("required,url", msg)
}

// File requires an attached media handle
func File(msg string) ParseFunc {
	return func(in Input) (any, error) {
		if in.FileID == "" {
			return nil, Invalid(msg)
		}
		return in.FileID, nil
	}
}

// Any accepts every message and stores the whole Input
func Any() ParseFunc {
	return func(in Input) (any, error) {
		return in, nil
	}
}

func validated(tag, msg string) ParseFunc {
	return func(in Input) (any, error) {
		text := strings.TrimSpace(in.Text)
		if err := validate.Var(text, tag); err != nil {
			return nil, Invalid(msg)
		}
		return text, nil
	}
}
