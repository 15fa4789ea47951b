package api

import "time"

var ValidateAuth = validateAuth

func OverloadRemoteShutdownDelay(overload time.Duration) func() {
	remoteShutdownDelayRef := remoteShutdownDelay
	remoteShutdownDelay = overload
	return func() { remoteShutdownDelay = remoteShutdownDelayRef }
}
