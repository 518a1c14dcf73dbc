package session

import "errors"

// ErrInvalidConfig is returned by NewState and Config.Validate.
var ErrInvalidConfig = errors.New("session: invalid config")
