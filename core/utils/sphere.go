package utils

import "github.com/gosimple/slug"

// SphereKey normalizes a user-entered sphere name into the stable key stored
// alongside events ("Deep Work" -> "deep-work").
func SphereKey(name string) string {
	return slug.Make(name)
}
