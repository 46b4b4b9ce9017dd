package scan

import "errors"

// ErrGlobalTimeout marks a scan whose probe batch outlived the global
// deadline. It reaches the report only as the synthetic error string.
var ErrGlobalTimeout = errors.New("scan: total scan timeout")
