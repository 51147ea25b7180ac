package util

import (
	"errors"
	"path"
	"strings"
)

// MaxObjectName bounds the name part of an object key.
const MaxObjectName = 64

var ErrInvalidObjectName = errors.New("invalid object name")

// ObjectName turns a client file name into the name part of an object key.
// Keys travel in /blobs/:key URLs, so anything outside [A-Za-z0-9._-] becomes
// '_'. Long names are cut from the stem and keep their extension.
func ObjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidObjectName
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if strings.Trim(safe, "._") == "" {
		return "", ErrInvalidObjectName
	}
	if len(safe) > MaxObjectName {
		ext := path.Ext(safe)
		if len(ext) >= MaxObjectName/2 {
			ext = ""
		}
		safe = safe[:MaxObjectName-len(ext)] + ext
	}
	return safe, nil
}
