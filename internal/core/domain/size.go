package domain

import (
	"fmt"
	"strconv"
)

// SizeClass is one of the fixed thumbnail size tiers defined by the
// freedesktop thumbnail spec. Classes are totally ordered by pixel
// dimension; the zero value is SizeNormal.
type SizeClass int

const (
	// SizeNormal is the 128x128 tier.
	SizeNormal SizeClass = iota

	// SizeLarge is the 256x256 tier.
	SizeLarge

	// SizeXLarge is the 512x512 tier.
	SizeXLarge

	// SizeXXLarge is the 1024x1024 tier.
	SizeXXLarge
)

// sizeNames and sizePixels are indexed by SizeClass.
var (
	sizeNames  = [...]string{"normal", "large", "x-large", "xx-large"}
	sizePixels = [...]int{128, 256, 512, 1024}
)

// Name returns the canonical directory name for the class.
func (s SizeClass) Name() string {
	if s < SizeNormal || s > SizeXXLarge {
		return fmt.Sprintf("sizeclass(%d)", int(s))
	}
	return sizeNames[s]
}

// Pixels returns the class's pixel dimension.
func (s SizeClass) Pixels() int {
	if s < SizeNormal || s > SizeXXLarge {
		return 0
	}
	return sizePixels[s]
}

// Valid reports whether s is one of the defined tiers.
func (s SizeClass) Valid() bool {
	return s >= SizeNormal && s <= SizeXXLarge
}

// Classes returns all size classes in ascending pixel order.
func Classes() []SizeClass {
	return []SizeClass{SizeNormal, SizeLarge, SizeXLarge, SizeXXLarge}
}

// ClassesDescending returns all size classes largest first. This is the
// probe order for lookups without an explicit size: a larger thumbnail
// is a safe superset of a smaller one for display purposes.
func ClassesDescending() []SizeClass {
	return []SizeClass{SizeXXLarge, SizeXLarge, SizeLarge, SizeNormal}
}

// ClassForPixels maps a numeric size request to the smallest class whose
// dimension is >= the request, clamped to the largest tier.
func ClassForPixels(px int) SizeClass {
	for _, c := range Classes() {
		if px <= c.Pixels() {
			return c
		}
	}
	return SizeXXLarge
}

// ParseSizeClass accepts a class name ("normal", "large", ...) or a
// numeric pixel size ("256") and returns the corresponding class.
func ParseSizeClass(s string) (SizeClass, error) {
	for i, name := range sizeNames {
		if s == name {
			return SizeClass(i), nil
		}
	}
	if px, err := strconv.Atoi(s); err == nil && px > 0 {
		return ClassForPixels(px), nil
	}
	return SizeNormal, fmt.Errorf("%w: unknown size %q", ErrInvalidInput, s)
}
