package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"kiosk-pos/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

var errInvalidBody = model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "invalid request body")

// decodeJSONBody decodes and validates a request body. Unknown fields are
// tolerated because kiosk clients post their cart lines as-is.
func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errInvalidBody.WithCause(err)
	}
	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns the first validator failure into the matching
// domain error.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return model.NewDomainError(model.KindValidation, model.ErrCodeValidation, "validation failed").WithCause(err)
	}

	fe := errs[0]
	field := fieldPath(fe)
	message := fmt.Sprintf("%s %s", field, validationMessage(fe))

	switch {
	case field == "items":
		return model.ErrNoItems
	case strings.HasPrefix(field, "items["):
		return model.ErrInvalidItem.WithMessage(message)
	case field == "status":
		return model.ErrInvalidStatus.WithMessage(message)
	case field == "payment_method":
		return model.ErrInvalidPaymentMethod.WithMessage(message)
	case field == "payment_status":
		return model.ErrInvalidPaymentStatus.WithMessage(message)
	}
	return model.NewDomainError(model.KindValidation, model.ErrCodeValidation, message)
}

// fieldPath drops the struct name from a namespace such as
// "CreateOrderRequest.items[1].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return "is invalid"
}
