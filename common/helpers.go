package common

import "os/user"

// IsRunningAsRoot reports whether the current user is root. An unknown
// user is not root.
func IsRunningAsRoot() bool {
	usr, err := user.Current()
	if err != nil {
		return false
	}
	return usr.Uid == "0" || usr.Username == "root"
}
