package dispatch

import "errors"

// ErrInterrupt is returned by a handler to stop delivery of the current post to
// every later handler.
var ErrInterrupt = errors.New("delivery interrupted")
