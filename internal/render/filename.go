package render

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindPNG Kind = "png"
	KindSVG Kind = "svg"
)

// FileName is the default export name for an artifact produced at t.
func FileName(kind Kind, t time.Time) string {
	return fmt.Sprintf("quilt-pattern-%d.%s", t.UnixMilli(), kind)
}

// ParseKind accepts an export kind case-insensitively.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindPNG:
		return KindPNG, nil
	case KindSVG:
		return KindSVG, nil
	default:
		return "", fmt.Errorf("unsupported export kind %q", value)
	}
}
