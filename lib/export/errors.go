package export

import "errors"

var (
	ErrUnknownFormat = errors.New("export: unknown format")
	ErrHashMismatch  = errors.New("export: configuration hash mismatch")
	ErrNoPDFRenderer = errors.New("export: no PDF renderer configured")
	ErrEncoding      = errors.New("export: unsupported encoding")
)
