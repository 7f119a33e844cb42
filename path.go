package main

import (
	"strings"
)

const (
	// Separator delimits virtual folder segments inside object keys.
	Separator = "/"
	// PlaceholderSuffix names the empty marker object that keeps an otherwise
	// empty folder visible in listings.
	PlaceholderSuffix = ".keep"
)

// Path is a virtual directory inside the bucket. The root is "/"; every other
// path is a sequence of segments each followed by "/", e.g. "docs/2024/".
type Path string

// RootPath is the bucket root.
const RootPath Path = Separator

// IsRoot reports whether p is the bucket root. The empty path counts as root.
func (p Path) IsRoot() bool {
	return p == RootPath || p == ""
}

// Segments returns the folder names from the root down to p.
func (p Path) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(p), Separator), Separator)
}

// Child returns the path one level below p. The segment is not validated.
func (p Path) Child(segment string) Path {
	if p.IsRoot() {
		return Path(segment + Separator)
	}
	return Path(string(p) + segment + Separator)
}

// Parent returns the path one level above p; the parent of the root is the root.
func (p Path) Parent() Path {
	segments := p.Segments()
	if len(segments) <= 1 {
		return RootPath
	}
	return Path(strings.Join(segments[:len(segments)-1], Separator) + Separator)
}

// Prefix is p as an object key prefix: empty for the root.
func (p Path) Prefix() string {
	if p.IsRoot() {
		return ""
	}
	return string(p)
}

// String renders p, showing the root as "/".
func (p Path) String() string {
	if p.IsRoot() {
		return string(RootPath)
	}
	return string(p)
}

// ValidateSegment reports whether name can be used as a single folder or
// file name under the current path.
func ValidateSegment(name string) error {
	switch {
	case name == "":
		return newInvalidSegmentError(name, "is empty")
	case name == "." || name == "..":
		return newInvalidSegmentError(name, "is reserved")
	case strings.Contains(name, Separator):
		return newInvalidSegmentError(name, "contains "+Separator)
	}
	return nil
}

// PathModel tracks the active virtual directory and derives backend keys
// from it. A non-empty namespace is prepended to every key and list scope.
type PathModel struct {
	namespace string
	current   Path
}

// NewPathModel returns a model positioned at the root. The namespace is
// normalised to end with a separator.
func NewPathModel(namespace string) *PathModel {
	namespace = strings.Trim(namespace, Separator)
	if namespace != "" {
		namespace += Separator
	}
	return &PathModel{namespace: namespace, current: RootPath}
}

// Current returns the active virtual directory.
func (m *PathModel) Current() Path {
	return m.current
}

// Descend moves into segment and returns the new path.
func (m *PathModel) Descend(segment string) (Path, error) {
	if err := ValidateSegment(segment); err != nil {
		return m.current, err
	}
	m.current = m.current.Child(segment)
	return m.current, nil
}

// Ascend moves to the parent path. It reports false when already at the root.
func (m *PathModel) Ascend() (Path, bool) {
	if m.current.IsRoot() {
		return m.current, false
	}
	m.current = m.current.Parent()
	return m.current, true
}

// Reset moves back to the root.
func (m *PathModel) Reset() {
	m.current = RootPath
}

// ListScope is the key prefix whose direct children form the current listing.
func (m *PathModel) ListScope() string {
	return m.namespace + m.current.Prefix()
}

// KeyFor builds the full object key for name in the current path. Folder
// keys carry a trailing separator.
func (m *PathModel) KeyFor(name string, scopeFolder bool) string {
	key := m.ListScope() + name
	if scopeFolder {
		key += Separator
	}
	return key
}

// PlaceholderKey is the key of the marker object for folder name.
func (m *PathModel) PlaceholderKey(name string) string {
	return m.KeyFor(name, true) + PlaceholderSuffix
}
