package errors

// Code is a stable machine-readable error classification. Codes are part of
// the API contract and must not be renamed.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeDisabled         Code = "DISABLED"
	CodeInvalidUser      Code = "INVALID_USER"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeAccessDenied     Code = "ACCESS_DENIED"
	CodeBlocked          Code = "BLOCKED"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeInternal         Code = "INTERNAL"
)
