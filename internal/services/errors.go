package services

import (
	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

// Dashboard service errors
var (
	// ErrNoTables is returned when a page has nothing to export
	ErrNoTables = apierrors.NewAppError(apierrors.ErrTypeNotFound, "page has no exportable tables", nil)
)
