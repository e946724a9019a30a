package serialization

import "github.com/pkg/errors"

// ErrMalformedRecord is returned when a stored record cannot be decoded
var ErrMalformedRecord = errors.New("malformed database record")

func errorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedRecord, format, args...)
}
