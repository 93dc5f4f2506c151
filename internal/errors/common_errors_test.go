package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{"parsing", NewParsingError("bad header", errors.New("eof")), ErrTypeParsing, "[PARSING] bad header: eof"},
		{"storage", NewStorageError("open PAPs_clean.csv", fs.ErrNotExist), ErrTypeStorage, "[STORAGE] open PAPs_clean.csv: file does not exist"},
		{"validation", NewAppValidationError("value too long"), ErrTypeValidation, "[VALIDATION] value too long"},
		{"not found", NewNotFoundError("page"), ErrTypeNotFound, "[NOT_FOUND] page not found"},
		{"config", NewConfigError("bad port", nil), ErrTypeConfig, "[CONFIG] bad port"},
		{"data unavailable", NewDataUnavailableError("grc", nil), ErrTypeDataUnavailable, "[DATA_UNAVAILABLE] dataset grc unavailable"},
		{"render", NewRenderError("chart failed", nil), ErrTypeRender, "[RENDER] chart failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewStorageError("open file", fs.ErrNotExist)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	wrapped := errors.Join(errors.New("outer"), err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewNotFoundError("chart").WithContext("page", "grc").WithContext("chart", "by-location")
	assert.Equal(t, "grc", err.Context["page"])
	assert.Equal(t, "by-location", err.Context["chart"])
}
