package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter ErrorCode = 100
	ErrCodeInvalidBar       ErrorCode = 101
	ErrCodeInvalidPeriod    ErrorCode = 102
	ErrCodeMissingParameter ErrorCode = 103

	// Data errors (200-299)
	ErrCodeDataUnavailable ErrorCode = 200
	ErrCodeDataParseFailed ErrorCode = 201

	// Strategy errors (300-399)
	ErrCodeUnknownStrategy       ErrorCode = 300
	ErrCodeStrategyAlreadyExists ErrorCode = 301
	ErrCodeStrategyInvalidParams ErrorCode = 302

	// Portfolio errors (400-499)
	ErrCodePositionAlreadyOpen   ErrorCode = 400
	ErrCodePositionAlreadyClosed ErrorCode = 401
	ErrCodeInsufficientCapital   ErrorCode = 402
	ErrCodeInvalidShares         ErrorCode = 403

	// Config errors (500-599)
	ErrCodeConfigLoad    ErrorCode = 500
	ErrCodeConfigInvalid ErrorCode = 501

	// Persistence errors (600-699)
	ErrCodeStoreFailed  ErrorCode = 600
	ErrCodeExportFailed ErrorCode = 601
)
