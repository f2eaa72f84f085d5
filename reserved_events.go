package sio

var serverReservedEvents = map[string]bool{
	"connect":        true,
	"connect_error":  true,
	"disconnect":     true,
	"disconnecting":  true,
	"newListener":    true,
	"removeListener": true,
	"connection":     true,
	"error":          true,
}

func IsEventReservedForServer(eventName string) bool {
	isReserved, ok := serverReservedEvents[eventName]
	if ok && isReserved {
		return true
	}
	return false
}

// IsEventReservedForNsp reports whether eventName is reserved at the
// namespace level (OnEvent/OnceEvent registration). It shares the server's
// reserved set since connect/connect_error/disconnect/disconnecting/error
// are namespace-scoped concepts too.
func IsEventReservedForNsp(eventName string) bool {
	return IsEventReservedForServer(eventName)
}
