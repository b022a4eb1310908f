//go:build unix

package disasm

import (
	"debug/elf"
	"fmt"

	"golang.org/x/sys/unix"
)

// TextSize reports the .text section size of an ELF object along with the
// page-rounded size it occupies once mapped. The padded figure is what the
// loader actually spends, so size comparisons between backends use both.
func TextSize(path string) (size, padded int64, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("disasm: open ELF %s: %w", path, err)
	}
	defer f.Close()

	sec := f.Section(".text")
	if sec == nil {
		return 0, 0, fmt.Errorf("disasm: %s has no .text section", path)
	}

	size = int64(sec.Size)
	pageSize := int64(unix.Getpagesize())
	padded = (size + pageSize - 1) / pageSize * pageSize
	return size, padded, nil
}
