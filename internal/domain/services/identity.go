package services

import (
	"crypto/md5"
	"fmt"
	"os"
	"os/user"
)

// LocalUserID derives a stable identifier from the local username and
// machine name. Used as the default session key and as the user id recorded
// on uploaded meals.
func LocalUserID() string {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	sum := md5.Sum(fmt.Appendf(nil, "%s@%s", username, hostname))
	return fmt.Sprintf("user_%x", sum[:4])
}
