package shared

// CodedError is an error that carries a stable, machine-readable code.
// The HTTP layer maps codes to status codes.
type CodedError interface {
	error
	ErrorCode() string
}
