// Package privilege answers one question: is this process running with
// elevated rights? The install target is a system-owned path, so the
// pipeline refuses to start without them.
package privilege

import "os"

// IsElevated reports whether the process runs with root privileges.
// On Windows os.Geteuid returns -1, so elevation is never claimed there;
// the installed nmap table lives at a Unix path anyway.
func IsElevated() bool {
	return os.Geteuid() == 0
}
