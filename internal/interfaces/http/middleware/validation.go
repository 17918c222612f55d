package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rxforms/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report fields by their JSON (or
// form) name, so details read "name" rather than "Name"
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
		}
		return name
	})
}

// FormatValidationErrors builds the 400 response for a failed bind. A body
// that did not decode has no field details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		message := "Request validation failed"
		if err != nil {
			message = "Malformed request body: " + err.Error()
		}
		return dto.NewValidationErrorResponse(message, requestID, nil)
	}

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes the 400 response for a failed bind
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// validationMessages holds the message format per tag; %s is the tag
// parameter
var validationMessages = map[string]string{
	"required": "This field is required",
	"len":      "Must be exactly %s characters",
	"oneof":    "Must be one of: %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"gt":       "Must be greater than %s",
	"lt":       "Must be less than %s",
	"hexcolor": "Must be a hex color such as #1a2b3c",
}

func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be %s %s characters", bound, fe.Param())
		}
		return fmt.Sprintf("Must be %s %s", bound, fe.Param())
	}
	format, ok := validationMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, fe.Param())
	}
	return format
}
