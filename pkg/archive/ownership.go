package archive

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
)

// Owner is a resolved uid and gid pair
type Owner struct {
	Name string
	UID  int
	GID  int
}

// LookupOwner resolves name to its uid and to the gid of the group with
// the same name.
func LookupOwner(name string) (Owner, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return Owner{}, fmt.Errorf("unknown user %q: %w", name, err)
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return Owner{}, fmt.Errorf("unknown group %q: %w", name, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Owner{}, fmt.Errorf("non-numeric uid %q for %s", u.Uid, name)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Owner{}, fmt.Errorf("non-numeric gid %q for %s", g.Gid, name)
	}

	return Owner{Name: name, UID: uid, GID: gid}, nil
}

// ParseMode parses an octal permission string such as "755"
func ParseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("permissions %q are not an octal mode", s)
	}
	if v > 0777 {
		return 0, fmt.Errorf("permissions %q exceed 777", s)
	}
	return os.FileMode(v), nil
}

// normalize walks every entry below root, excluding root itself, applying
// mode and owner when set. Failures are logged and never stop the walk.
func normalize(root string, mode os.FileMode, hasMode bool, owner *Owner, log logger.Logger) int {
	failures := 0
	report := func(path string, err error) {
		failures++
		fsErr := errors.Wrap(errors.ErrorTypeFilesystem, err, "cannot normalize %s", path)
		log.WithError(fsErr).Warn("Ownership or permission change failed")
	}

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report(path, err)
			return nil
		}
		if path == root {
			return nil
		}

		if hasMode {
			if err := os.Chmod(path, mode); err != nil {
				report(path, err)
			}
		}
		if owner != nil {
			if err := os.Lchown(path, owner.UID, owner.GID); err != nil {
				report(path, err)
			}
		}
		return nil
	})

	return failures
}
