package data

import (
	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
)

// MapDBError translates low-level database errors into the application
// error taxonomy. Thin alias so repositories stay terse.
func MapDBError(err error) error {
	return apperrors.MapDBError(err)
}
