// Package identity mints the processor identity used to tag queue claims.
package identity

import (
	"fmt"
	"os"
	"time"
)

// New derives a processor identity from the host name, the process id, and
// the process start time. Minted once at startup and threaded through
// explicitly; a restarted process always gets a fresh identity.
func New() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	return fmt.Sprintf("%s-%d-%d", hostname, os.Getpid(), time.Now().Unix())
}
