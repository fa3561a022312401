// Package security provides request validation for the HTTP API
package security

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/pkg/errors"
)

var ingredientPattern = regexp.MustCompile(`^[a-zA-Z0-9\s,\-çÇğĞıİöÖşŞüÜ]+$`)

var registerOnce sync.Once

// ValidationService registers the API's custom validation rules and
// turns binding failures into error envelopes
type ValidationService struct {
	logger *zap.Logger
}

// NewValidationService installs the custom rules on gin's validator
func NewValidationService(logger *zap.Logger) (*ValidationService, error) {
	var err error
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = RegisterValidators(engine)
	})
	if err != nil {
		return nil, err
	}
	return &ValidationService{logger: logger.Named("validation")}, nil
}

// RegisterValidators adds the ingredient rule and JSON field naming
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v.RegisterValidation("ingredient", validateIngredient)
}

// ValidIngredient reports whether s is an acceptable ingredient name
func ValidIngredient(s string) bool {
	return strings.TrimSpace(s) != "" && ingredientPattern.MatchString(s)
}

func validateIngredient(fl validator.FieldLevel) bool {
	return ValidIngredient(fl.Field().String())
}

// ContentTypeJSON rejects request bodies that are not JSON
func (v *ValidationService) ContentTypeJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			appErr := errors.NewBadRequestError("Content-Type must be application/json")
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, errors.ToErrorResponse(appErr, c.GetString("request_id")))
			return
		}

		c.Next()
	}
}

// BindError converts a binding failure into an AppError
func (v *ValidationService) BindError(err error) *errors.AppError {
	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		out := make([]errors.ValidationError, 0, len(validationErrs))
		for _, e := range validationErrs {
			out = append(out, errors.ValidationError{
				Field:   e.Field(),
				Value:   e.Value(),
				Tag:     e.Tag(),
				Message: fieldMessage(e),
			})
		}
		return errors.NewValidationErrors(out)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.NewBadRequestError("Request body must be valid JSON").WithCause(err)
	case stderrors.As(err, &typeErr):
		return errors.NewBadRequestError(fmt.Sprintf("%s has the wrong type", typeErr.Field)).WithCause(err)
	}

	v.logger.Debug("Unclassified binding error", zap.Error(err))
	return errors.NewBadRequestError("Invalid request body").WithCause(err)
}

func fieldMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "ingredient":
		return fmt.Sprintf("%s may only contain letters, digits, spaces, commas and dashes", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
