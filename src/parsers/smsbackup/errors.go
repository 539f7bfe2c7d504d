package smsbackup

import "errors"

// ErrMalformedDocument is returned when the backup document cannot be decoded
// at all. It is recoverable: the caller decides whether to abort the upload.
var ErrMalformedDocument = errors.New("malformed backup document")
