package models

import (
	"fmt"
	"strings"
)

// Platform identifies a social network a post is written for.
type Platform string

const (
	PlatformX        Platform = "x"
	PlatformLinkedIn Platform = "linkedin"
	PlatformFacebook Platform = "facebook"
)

// PlatformSpec holds the limits a generated post must respect.
type PlatformSpec struct {
	Platform     Platform
	DisplayName  string
	MaxLength    int
	HashtagLimit int
}

// Platforms lists the supported platforms in the order posts are shown.
var Platforms = []PlatformSpec{
	{Platform: PlatformX, DisplayName: "X", MaxLength: 280, HashtagLimit: 3},
	{Platform: PlatformLinkedIn, DisplayName: "LinkedIn", MaxLength: 3000, HashtagLimit: 5},
	{Platform: PlatformFacebook, DisplayName: "Facebook", MaxLength: 2000, HashtagLimit: 4},
}

// Spec returns the limits for p.
func (p Platform) Spec() (PlatformSpec, bool) {
	for _, spec := range Platforms {
		if spec.Platform == p {
			return spec, true
		}
	}
	return PlatformSpec{}, false
}

// DisplayName returns the human name, falling back to the raw value.
func (p Platform) DisplayName() string {
	if spec, ok := p.Spec(); ok {
		return spec.DisplayName
	}
	return strings.ToUpper(string(p))
}

// ParsePlatform accepts the platform id or its display name, case-insensitively.
// "twitter" is accepted as an alias for X.
func ParsePlatform(s string) (Platform, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "twitter" {
		return PlatformX, nil
	}
	for _, spec := range Platforms {
		if v == string(spec.Platform) || v == strings.ToLower(spec.DisplayName) {
			return spec.Platform, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}
