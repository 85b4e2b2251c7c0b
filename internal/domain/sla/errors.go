package sla

import (
	"fmt"

	"github.com/turtacn/casetrack/pkg/errors"
)

// MissingRequiredDate reports an absent mandatory date on one entity.
func MissingRequiredDate(entity, id, field string) *errors.AppError {
	return errors.New(errors.CodeMissingRequiredDate, fmt.Sprintf("%s is required", field)).
		WithDetail(fmt.Sprintf("%s=%s field=%s", entity, id, field))
}

// InvalidDateOrder reports that later precedes earlier on one entity.
func InvalidDateOrder(entity, id, later, earlier string) *errors.AppError {
	return errors.New(errors.CodeInvalidDateOrder, fmt.Sprintf("%s precedes %s", later, earlier)).
		WithDetail(fmt.Sprintf("%s=%s", entity, id))
}

// UnknownEnumValue reports a value outside a closed vocabulary.
func UnknownEnumValue(kind, value string) *errors.AppError {
	return errors.New(errors.CodeUnknownEnumValue, fmt.Sprintf("unknown %s %q", kind, value)).
		WithDetail(fmt.Sprintf("kind=%s value=%s", kind, value))
}

//Personal.AI order the ending
