package http_utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const ErrorMessage500 = "Something went wrong!"

type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DataResponse struct {
	BaseResponse
	Data interface{} `json:"data"`
}

type ValidationErrorResponse struct {
	BaseResponse
	Errors []string `json:"errors"`
}

func NewBaseResponse(success bool, msg string) BaseResponse {
	return BaseResponse{
		Success: success,
		Message: msg,
	}
}

func ErrorResponse(msg string) BaseResponse {
	return NewBaseResponse(false, msg)
}

func SuccessResponse(msg string, data interface{}) DataResponse {
	return DataResponse{
		BaseResponse: NewBaseResponse(true, msg),
		Data:         data,
	}
}

// ValidationResponse turns a binding error into a response listing every
// failed field. Errors that are not validation errors are reported as-is.
func ValidationResponse(err error) ValidationErrorResponse {
	response := ValidationErrorResponse{
		BaseResponse: NewBaseResponse(false, "invalid request, validation failed"),
		Errors:       []string{err.Error()},
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.Errors = lo.Map(verrs, func(item validator.FieldError, index int) string {
			return item.Error()
		})
	}

	return response
}
