package handler

import (
	"errors"
	"net/http"
	"reflect"

	"retailpos/internal/apierror"
	"retailpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondServiceError maps service-layer error types to HTTP statuses:
// validation and business-rule violations → 422, missing entities → 404,
// lock/serialization conflicts → 409. Anything else is treated as an
// internal error and hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		ruleErr       *service.BusinessRuleError
		conflictErr   *service.ConcurrencyError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(validationErr.Error()))
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, apierror.New(notFoundErr.Error()))
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(ruleErr.Error()))
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, apierror.New("concurrent modification, please retry"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
