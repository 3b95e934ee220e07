package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"rewear/internal/apperr"
	"rewear/internal/middleware"
	"rewear/internal/services"
	"rewear/internal/utils"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// respond writes the success envelope. data keys are merged into the body.
func respond(c *gin.Context, code int, message string, data gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(code, body)
}

// fail writes the error envelope. Unexpected errors are logged and hidden.
func fail(c *gin.Context, log logrus.FieldLogger, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = middleware.TooLarge(tooLarge.Limit)
	}
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), gin.H{"success": false, "message": e.Message})
}

// bindError converts a binding failure into a validation error.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return middleware.TooLarge(tooLarge.Limit)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return apperr.Validation(strings.Join(msgs, "; "))
	}
	return apperr.Validation("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "condition":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(services.Conditions, ", "))
	case "listingtype":
		return field + " must be swap or donation"
	}
	return field + " is invalid"
}

// toSnake turns a Go field name into its JSON form: ItemID -> item_id.
func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}

// actor returns the authenticated caller. Only valid behind AuthRequired.
func actor(c *gin.Context) services.Actor {
	return middleware.CurrentIdentity(c).Actor()
}

// optionalActor returns nil for anonymous callers.
func optionalActor(c *gin.Context) *services.Actor {
	id := middleware.CurrentIdentity(c)
	if id == nil {
		return nil
	}
	a := id.Actor()
	return &a
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		return 0, apperr.NotFound("Resource not found")
	}
	return id, nil
}
