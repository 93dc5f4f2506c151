package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/michel-emel/imce-project/internal/config"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

// FilterQuery lists the query parameters the dashboard pages accept
type FilterQuery struct {
	District string `json:"district" validate:"omitempty,filtervalue"`
	Sector   string `json:"sector" validate:"omitempty,filtervalue"`
	Cell     string `json:"cell" validate:"omitempty,filtervalue"`
	Site     string `json:"site" validate:"omitempty,filtervalue"`
	Role     string `json:"role" validate:"omitempty,filtervalue"`
	Gender   string `json:"gender" validate:"omitempty,filtervalue"`
	Company  string `json:"company" validate:"omitempty,filtervalue"`
}

// ValidationMiddleware rejects malformed filter query strings before any
// page is built
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	_ = v.RegisterValidation("filtervalue", isFilterValue)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// ValidateFilters checks every filter parameter of the query string.
// A parameter given more than once is rejected; unknown parameters pass.
func (m *ValidationMiddleware) ValidateFilters(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var fq FilterQuery
		var problems []apierrors.ValidationError
		for key, dst := range fq.fields() {
			values := query[key]
			switch {
			case len(values) > 1:
				problems = append(problems, apierrors.ValidationError{
					Field:   key,
					Message: fmt.Sprintf("%s must be given at most once", key),
				})
			case len(values) == 1:
				*dst = values[0]
			}
		}

		if len(problems) > 0 {
			m.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(problems))
			return
		}

		if err := m.ValidateStruct(fq); err != nil {
			m.logger.WarnContext(r.Context(), "filter validation failed",
				slog.String("query", r.URL.RawQuery),
				slog.String("error", err.Error()))
			m.errorHandler.HandleError(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (fq *FilterQuery) fields() map[string]*string {
	return map[string]*string{
		"district": &fq.District,
		"sector":   &fq.Sector,
		"cell":     &fq.Cell,
		"site":     &fq.Site,
		"role":     &fq.Role,
		"gender":   &fq.Gender,
		"company":  &fq.Company,
	}
}

// ValidateStruct validates a struct and returns validation errors
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.ErrInvalidRequest
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	case "filtervalue":
		return fmt.Sprintf("%s must be printable text of at most %d characters", field, config.MaxFilterValueSize)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isFilterValue accepts printable text without control characters.
// Site and company names carry slashes, dots and parentheses, so
// punctuation is allowed.
func isFilterValue(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) > config.MaxFilterValueSize {
		return false
	}
	for _, r := range value {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
