package mlclient

import (
	"errors"
	"fmt"

	"babyweight_service/internal/domain/model"
)

var (
	ErrFieldAccess          = errors.New("record field access failed")
	ErrUnsuccessfulResponse = errors.New("prediction service returned unsuccessful response")
	ErrTransportTimeout     = errors.New("prediction service round trip timed out")
	ErrConnection           = errors.New("prediction service connection failed")
	ErrAuthorization        = errors.New("prediction request authorization failed")
	ErrDecode               = errors.New("prediction response decode failed")
)

const maxSnippetLen = 256

// FieldAccessError reports a required field that is absent or mistyped in a record.
type FieldAccessError struct {
	Field model.Field
	Err   error
}

func (e *FieldAccessError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFieldAccess, e.Field, e.Err)
}

func (e *FieldAccessError) Unwrap() error { return e.Err }

func (e *FieldAccessError) Is(target error) bool { return target == ErrFieldAccess }

// StatusError is a non-2xx reply from the prediction service.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", ErrUnsuccessfulResponse, e.Endpoint, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnsuccessfulResponse }

func snippet(body []byte) string {
	if len(body) <= maxSnippetLen {
		return string(body)
	}
	return string(body[:maxSnippetLen]) + "..."
}
