package cec

import "errors"

// ErrAlreadyStarted is returned by start() when the action is not in
// StateNone. Restarting an action in place is not supported — callers must
// construct a fresh one.
var ErrAlreadyStarted = errors.New("cec: discovery action already started")

var errInvalidConfig = errors.New("cec: invalid discovery config")
