// SPDX-License-Identifier: MPL-2.0

package alias

// Args is the result of splitting a command line into an alias target and
// extra search directories.
type Args struct {
	// Alias is the first alias token, empty when none was given.
	Alias string
	// Dirs are the remaining tokens, treated as search directories.
	Dirs []string
	// Ignored holds alias tokens after the first.
	Ignored []string
}

// SplitArgs separates alias tokens from search directories.
func SplitArgs(args []string) Args {
	var out Args
	for _, arg := range args {
		switch {
		case !IsAliasToken(arg):
			out.Dirs = append(out.Dirs, arg)
		case out.Alias == "":
			out.Alias = arg
		default:
			out.Ignored = append(out.Ignored, arg)
		}
	}
	return out
}
