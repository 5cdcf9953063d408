package handlers

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9.+_-]{1,150}$`)

	registerOnce sync.Once
)

// RegisterValidators installs the custom binding tags used by request
// structs. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonTagName(f.Name, f.Tag.Get("json"))
		})

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("room", func(fl validator.FieldLevel) bool {
			return chat.ValidRoom(fl.Field().String())
		})
	})
}

func init() {
	RegisterValidators()
}
