package middleware

import (
	"rewear/internal/models"
	"rewear/internal/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain tags used in request bindings:
// listingtype (swap|donation) and condition (one of services.Conditions).
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("listingtype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || s == models.ListingSwap || s == models.ListingDonation
	}); err != nil {
		return err
	}
	return v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return services.ValidCondition(fl.Field().String())
	})
}
