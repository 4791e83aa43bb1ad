package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var roomCodePattern = regexp.MustCompile(`^[a-z]{6}$`)

func InitValidator() {
	Validate = validator.New()

	// six lowercase letters, the format minted by the matchmaker
	Validate.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
		return roomCodePattern.MatchString(fl.Field().String())
	})
}
