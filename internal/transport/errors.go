package transport

import "errors"

// ErrInvalidProxyAddress is returned when the upstream proxy address is
// not in "host:port" format with a valid port number.
var ErrInvalidProxyAddress = errors.New("invalid proxy address: must be in host:port format")
