package main

import (
	"strings"
	"time"
	"unicode"
)

// EntryKind distinguishes virtual folders from regular objects.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindFolder
)

// String returns "file" or "folder".
func (k EntryKind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Entry is one classified item of a listing.
type Entry struct {
	// Name is the raw key fragment relative to the listed prefix.
	Name string
	Kind EntryKind
	// Segment is Name without its folder suffix; keys are built from it.
	Segment string
	// DisplayName is Segment with unsafe characters neutralised.
	DisplayName  string
	Size         int64
	LastModified time.Time
}

// IsFolder reports whether e is a folder.
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Canonical returns the name in listing form: folders end with a separator.
func (e Entry) Canonical() string {
	if e.IsFolder() {
		return e.DisplayName + Separator
	}
	return e.DisplayName
}

// Classify derives kind and names from a raw listing name. Folders are names
// ending with the separator or with the placeholder suffix.
func Classify(raw string) Entry {
	entry := Entry{Name: raw, Kind: KindFile, Segment: raw}
	switch {
	case strings.HasSuffix(raw, Separator):
		entry.Kind = KindFolder
		entry.Segment = strings.TrimSuffix(raw, Separator)
	case strings.HasSuffix(raw, PlaceholderSuffix):
		entry.Kind = KindFolder
		entry.Segment = strings.TrimSuffix(raw, PlaceholderSuffix)
	}
	entry.DisplayName = sanitizeName(entry.Segment)
	return entry
}

// classifyRaw is Classify carrying backend metadata.
func classifyRaw(raw RawEntry) Entry {
	entry := Classify(raw.Name)
	entry.Size = raw.Size
	entry.LastModified = raw.LastModified
	return entry
}

// sanitizeName replaces characters that could break rendering or smuggle
// markup or terminal escapes. The replacement never produces a separator or
// the placeholder suffix, so a sanitized name classifies the same way again.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '"' || r == '`' || r == '\\':
			return '_'
		case string(r) == Separator:
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, name)
}
