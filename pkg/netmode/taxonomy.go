package netmode

import "strings"

// Mode is the gateway-wide network mode.
type Mode string

const (
	ModeOn       Mode = "ON"
	ModeReadOnly Mode = "READ_ONLY"
	ModeOff      Mode = "OFF"
)

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	return m == ModeOn || m == ModeReadOnly || m == ModeOff
}

// readOperations is the authoritative read-verb set.
var readOperations = map[string]bool{
	"fetch": true, "search": true, "get": true, "read": true, "query": true, "list": true,
}

// writeOperations is the authoritative write-verb set.
var writeOperations = map[string]bool{
	"send": true, "post": true, "put": true, "delete": true,
	"create": true, "update": true, "write": true, "publish": true,
}

// IsOperationAllowed decides whether an operation may run under the given
// mode. The operation name is canonicalized to lowercase first. The
// returned reason is a stable machine string on denial, "" on allow.
func IsOperationAllowed(operation string, mode Mode) (bool, string) {
	op := strings.ToLower(strings.TrimSpace(operation))

	switch mode {
	case ModeOn:
		return true, ""
	case ModeOff:
		return false, "NETWORK_MODE_BLOCKED: all external communication is disabled"
	case ModeReadOnly:
		if readOperations[op] {
			return true, ""
		}
		if writeOperations[op] {
			return false, "NETWORK_MODE_BLOCKED: write operations are disabled in READ_ONLY mode"
		}
		// Conservative heuristic: an unknown operation whose name embeds
		// a write verb is treated as a write.
		for verb := range writeOperations {
			if strings.Contains(op, verb) {
				return false, "NETWORK_MODE_BLOCKED: operation resembles a write in READ_ONLY mode"
			}
		}
		return true, ""
	default:
		return false, "NETWORK_MODE_BLOCKED: unknown network mode"
	}
}

// IsWriteOperation reports whether the canonicalized operation is in the
// write-verb set.
func IsWriteOperation(operation string) bool {
	return writeOperations[strings.ToLower(strings.TrimSpace(operation))]
}
