// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"os"

	"github.com/mattn/go-isatty"
)

// StdioIsTerminal reports whether both stdin and stdout are terminals.
func StdioIsTerminal() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
