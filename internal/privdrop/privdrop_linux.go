//go:build linux

// Package privdrop lowers process privileges after the hardware has been
// opened, so the playback loop never runs as root.
package privdrop

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// To switches to the named user's uid/gid. It is a no-op when the process
// is not running as root. The gid must be dropped before the uid or the
// setgid call loses the privilege it needs.
func To(username string) error {
	if os.Geteuid() != 0 {
		return nil
	}
	u, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("privdrop: lookup %s: %w", username, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("privdrop: parse uid: %w", err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("privdrop: parse gid: %w", err)
	}
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("privdrop: setgid %d: %w", gid, err)
	}
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("privdrop: setuid %d: %w", uid, err)
	}
	return nil
}
