package collector

import "errors"

// ErrDataUnavailable marks an instrument whose price series could not be obtained.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrUnknownSource is returned by the registry for an unregistered source name.
var ErrUnknownSource = errors.New("unknown data source")
