// SPDX-License-Identifier: MPL-2.0

package alias

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	remoteSpecPattern = regexp.MustCompile(`^(?:([A-Za-z0-9_.+-]+)@)?([A-Za-z0-9_.-]+)(?::([0-9]{1,5}))?(/[^#]*)(?:#(.*))?$`)
	localSpecPattern  = regexp.MustCompile(`^(/[^#]*)(?:#(.*))?$`)
)

// ParseSiteSpec parses "[user@]host[:port]/path#uri" or "/path#uri" into an
// unnamed record.
func ParseSiteSpec(spec string) (*Record, error) {
	if m := localSpecPattern.FindStringSubmatch(spec); m != nil {
		return &Record{Root: m[1], URI: m[2]}, nil
	}

	m := remoteSpecPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, fmt.Errorf("%w: %q (expected [user@]host[:port]/path[#uri] or /path[#uri])", ErrInvalidSiteSpec, spec)
	}

	r := &Record{User: m[1], Host: m[2], Root: m[4], URI: m[5]}
	if m[3] != "" {
		port, err := strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w: port %s out of range", ErrInvalidSiteSpec, m[3])
		}
		r.Set(ExtraSSH+".port", port)
	}
	return r, nil
}
