package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Intent layer.
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrRejected        = "E_REJECTED"
	ErrConfirmRequired = "E_CONFIRM_REQUIRED"
	ErrBusy            = "E_BUSY"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrRejected:        {},
	ErrConfirmRequired: {},
	ErrBusy:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
