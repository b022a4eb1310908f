// Package ffi loads a compiled kernel shared object and exposes it behind
// the same capability as the native Go backend. The boundary contract is
// fixed-width scalars and pointer+length sequences; nothing on the far side
// retains a pointer past the call.
package ffi

import "errors"

// ErrUnsupported is returned by Open on platforms without dlopen support.
var ErrUnsupported = errors.New("ffi: kernel loading is not supported on this platform")
