package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de integridad y de almacenamiento (sin dependencias externas).
var (
	ErrNotFound         = errors.New("registro no encontrado")
	ErrDuplicateID      = errors.New("ya existe un registro con ese id")
	ErrUnknownTable     = errors.New("la tabla no existe")
	ErrUnknownColumn    = errors.New("la columna no existe")
	ErrStoreUnavailable = errors.New("almacén no disponible")
	ErrAuditWrite       = errors.New("fallo al escribir la entrada de auditoría")
)

// ValidationKind clasifica el motivo por el que un valor fue rechazado.
type ValidationKind string

const (
	InvalidType       ValidationKind = "INVALID_TYPE"
	InvalidFormat     ValidationKind = "INVALID_FORMAT"
	InvalidFixedValue ValidationKind = "INVALID_FIXED_VALUE"
	MissingRequired   ValidationKind = "MISSING_REQUIRED"
)

// ValidationError describe un rechazo de validación nombrando la columna y la
// restricción violada. Siempre se detecta antes de cualquier escritura.
type ValidationError struct {
	Kind    ValidationKind
	Table   string
	Column  string
	Value   string
	Allowed []string // valores permitidos cuando Kind == InvalidFixedValue
	Columns []string // columnas obligatorias vacías cuando Kind == MissingRequired
	Detail  string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case InvalidFixedValue:
		return fmt.Sprintf("columna %s: valor no permitido, elija entre: %s",
			e.Column, strings.Join(e.Allowed, ", "))
	case MissingRequired:
		return fmt.Sprintf("columnas obligatorias sin completar: %s",
			strings.Join(e.Columns, ", "))
	default:
		return fmt.Sprintf("columna %s: %s", e.Column, e.Detail)
	}
}

// Is permite usar errors.Is contra otro ValidationError del mismo Kind.
func (e *ValidationError) Is(target error) bool {
	var ve *ValidationError
	if errors.As(target, &ve) {
		return ve.Kind == e.Kind
	}
	return false
}

// NewValidationError construye un rechazo de tipo/formato con su detalle.
func NewValidationError(kind ValidationKind, table, column, value, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Table: table, Column: column, Value: value, Detail: detail}
}

// IsValidation informa si err es (o envuelve) un ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
