package imagesource

import "strings"

type Type int

const (
	WebCamera Type = 0
	Image     Type = 1
	Video     Type = 2
	ARCamera  Type = 3
	Unknown   Type = 4
)

var typeNames = map[Type]string{
	WebCamera: "webcamera",
	Image:     "image",
	Video:     "video",
	ARCamera:  "arcamera",
	Unknown:   "unknown",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[Unknown]
}

// ParseType is case insensitive and ignores separators, so "AR Camera",
// "ar_camera" and "ARCamera" are equivalent.
func ParseType(s string) Type {
	normalised := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	for t, name := range typeNames {
		if name == normalised {
			return t
		}
	}
	return Unknown
}
