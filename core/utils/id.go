package utils

import (
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// GenerateID returns a short random id for ephemeral objects such as
// gesture sessions.
func GenerateID() string {
	id, err := gonanoid.Generate("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz", 7)
	if err != nil {
		return ""
	}
	return id
}

// IsUUID reports whether id has the canonical lowercase UUID shape. Local
// store ids are UUIDs; provider ids are not (no hyphens), and that shape
// difference is what routes a commit to the right backend.
func IsUUID(id string) bool {
	return uuidPattern.MatchString(id)
}
