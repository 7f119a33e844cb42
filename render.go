package main

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Action is something the user can do with a rendered entry.
type Action int

const (
	ActionOpen Action = iota
	ActionDownload
	ActionDelete
)

// RenderItem is the toolkit-independent form of one listing entry.
type RenderItem struct {
	Icon    string
	Label   string
	Detail  string
	Folder  bool
	Actions []Action
}

// Can reports whether a is offered for the item.
func (r RenderItem) Can(a Action) bool {
	for _, have := range r.Actions {
		if have == a {
			return true
		}
	}
	return false
}

// RenderListing maps entries to render items in listing order. Folders can
// be opened and deleted; files can be downloaded and deleted.
func RenderListing(entries []Entry) []RenderItem {
	items := make([]RenderItem, 0, len(entries))
	for _, e := range entries {
		if e.IsFolder() {
			items = append(items, RenderItem{
				Icon:    "📁",
				Label:   e.DisplayName + Separator,
				Folder:  true,
				Actions: []Action{ActionOpen, ActionDelete},
			})
			continue
		}
		detail := humanize.IBytes(uint64(max(e.Size, 0)))
		if !e.LastModified.IsZero() {
			detail += " · " + e.LastModified.Local().Format(time.DateTime)
		}
		items = append(items, RenderItem{
			Icon:    "📄",
			Label:   e.DisplayName,
			Detail:  detail,
			Actions: []Action{ActionDownload, ActionDelete},
		})
	}
	return items
}

// Breadcrumb renders the current path for the title bar.
func Breadcrumb(bucket string, p Path) string {
	if p.IsRoot() {
		return bucket + ":" + Separator
	}
	segments := p.Segments()
	for i, seg := range segments {
		segments[i] = sanitizeName(seg)
	}
	return bucket + ":" + Separator + strings.Join(segments, Separator) + Separator
}
