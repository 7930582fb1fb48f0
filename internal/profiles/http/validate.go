package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/go-playground/validator/v10"
)

// validate checks request shape only. Business rules (email format, password
// and username length) are owned by the domain and reported with its codes.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads and validates a JSON body, writing the 400 response
// itself on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, profilesdk.ErrorCodeInvalidRequest, "Request body must be a single JSON object with known fields")
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			httpx.WriteError(w, http.StatusBadRequest, profilesdk.ErrorCodeInvalidRequest, "Invalid request")
			return false
		}

		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = formatFieldError(fe)
		}
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            profilesdk.ErrorCodeValidation,
			ErrorDescription: "Request validation failed",
			Details:          details,
		})
		return false
	}

	return true
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
