package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrConflict      = "E_CONFLICT"
	ErrStale         = "E_STALE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrNoPermission:    {},
	ErrConflict:        {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Event kinds emitted into OBS and the diagnostic log.
const (
	EventPathFail     = "PATH_FAIL"
	EventStall        = "STALL"
	EventRecovery     = "RECOVERY"
	EventAbandon      = "ABANDON"
	EventArrive       = "ARRIVE"
	EventActionResult = "ACTION_RESULT"
)
