package region

// ErrorCode is the persisted, header-resident error taxonomy. The audio
// thread never constructs a Go error (that would allocate); it stores one
// of these into Header.ErrorFlag, and the UI-side telemetry layer
// translates the value into something richer.
type ErrorCode int32

const (
	ErrorOK                   ErrorCode = 0
	ErrorAllocExhausted       ErrorCode = -1
	ErrorRingFull             ErrorCode = -2
	ErrorCursorErrChainLoop   ErrorCode = -3
	ErrorInvalidPointer       ErrorCode = -4
)

// String renders an ErrorCode for logs and test failure messages.
func (c ErrorCode) String() string {
	switch c {
	case ErrorOK:
		return "OK"
	case ErrorAllocExhausted:
		return "ALLOC_EXHAUSTED"
	case ErrorRingFull:
		return "RING_FULL"
	case ErrorCursorErrChainLoop:
		return "CURSOR_ERR_CHAIN_LOOP"
	case ErrorInvalidPointer:
		return "INVALID_POINTER"
	default:
		return "UNKNOWN"
	}
}
