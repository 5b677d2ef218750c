package handlers

import (
	"strings"
	"sync"

	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/security"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by request structs.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		// bcrypt reads at most 72 bytes; max= counts runes
		_ = v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= security.MaxPasswordBytes
		})

		_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
			_, err := trip.ParseDate(fl.Field().String())
			return err == nil
		})
	})
}
