package validation

import (
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// echo.Validatorの実装。c.Validate(req)で呼ばれる。
type RequestValidator struct {
	validate *validatorv10.Validate
}

func New() *RequestValidator {
	return &RequestValidator{validate: validatorv10.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationErrorsToMap(err))
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Field()] = "failed on '" + fe.Tag() + "'"
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
