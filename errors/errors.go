package errors

import "fmt"

var (
	ErrMessageNotFound   = fmt.Errorf("message not found")
	ErrTooManyConflicts  = fmt.Errorf("transaction kept conflicting")
	ErrUnknownBackend    = fmt.Errorf("unknown store backend")
	ErrMissingBadgerPath = fmt.Errorf("BADGER_FILEPATH is required for the badger backend")
	ErrMissingMongoURI   = fmt.Errorf("MONGO_URI is required for the mongo backend")
	ErrInvalidTuning     = fmt.Errorf("SEQUENCE_BANDWIDTH must be positive and TXN_RETRIES not negative")
)
