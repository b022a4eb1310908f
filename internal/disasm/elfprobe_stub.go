//go:build !unix

package disasm

import (
	"errors"
)

func TextSize(path string) (size, padded int64, err error) {
	return 0, 0, errors.New("disasm: text size probe unsupported on this platform")
}
