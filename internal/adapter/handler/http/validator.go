package http

import (
	"github.com/go-playground/validator/v10"
	apperrors "github.com/spectra-metals/spectra-server/pkg/errors"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, err.Error(), err)
	}
	return nil
}
