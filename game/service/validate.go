package service

import (
	"regexp"

	"github.com/google/uuid"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidSessionID reports whether id is shaped like a session id.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// ValidIdentity reports whether id is a canonical random (version 4) UUID.
func ValidIdentity(id string) bool {
	if len(id) != 36 {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return u.Version() == 4
}
