package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the connection state of a Controller.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

// String returns the state name used in logs.
func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// ConfirmGate asks the user a yes/no question and waits for the answer.
type ConfirmGate interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Downloader hands a retrieval URL to whatever saves it locally and returns
// where the file ended up.
type Downloader interface {
	Download(ctx context.Context, url, filename string) (string, error)
}

// UploadFile is one file of an upload batch. Open is called right before
// the file is sent so that only one file is open at a time.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFailure names a file that did not make it and why.
type UploadFailure struct {
	Name string
	Err  error
}

// UploadReport accounts for every file of a batch exactly once.
type UploadReport struct {
	Succeeded []string
	Failed    []UploadFailure
}

// Total is the number of files in the batch.
func (r UploadReport) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Summary is the one-line status shown after a batch, naming failed files.
func (r UploadReport) Summary() string {
	summary := fmt.Sprintf("%d succeeded, %d failed", len(r.Succeeded), len(r.Failed))
	if len(r.Failed) > 0 {
		names := make([]string, 0, len(r.Failed))
		for _, f := range r.Failed {
			names = append(names, f.Name)
		}
		summary += " (" + strings.Join(names, ", ") + ")"
	}
	return summary
}

// ControllerOptions configures NewController. Zero values fall back to the
// root namespace, the default page size and name order.
type ControllerOptions struct {
	Namespace string
	PageSize  int
	SortBy    string
	Logger    zerolog.Logger
}

// Controller owns the navigation state: the connection, the current path and
// the listing shown for it. Only one operation runs at a time; Busy reports
// whether one is in flight.
type Controller struct {
	connector  Connector
	gate       ConfirmGate
	downloader Downloader
	pageSize   int
	sortBy     string
	log        zerolog.Logger

	busy atomic.Bool

	mu      sync.RWMutex
	state   State
	store   Storage
	path    *PathModel
	listing *ListingCache
}

// NewController returns a disconnected controller positioned at the root.
func NewController(connector Connector, gate ConfirmGate, downloader Downloader, opts ControllerOptions) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByName
	}
	return &Controller{
		connector:  connector,
		gate:       gate,
		downloader: downloader,
		pageSize:   opts.PageSize,
		sortBy:     opts.SortBy,
		log:        opts.Logger,
		state:      StateDisconnected,
		path:       NewPathModel(opts.Namespace),
		listing:    NewListingCache(),
	}
}

// Busy reports whether an operation is in flight. The UI uses it to hold
// back new intents until the current one settles.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// State reports whether the controller is connected.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Path returns the current virtual directory.
func (c *Controller) Path() Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path.Current()
}

// Listing returns a copy of the entries of the current path.
func (c *Controller) Listing() []Entry {
	return c.listing.Current()
}

func (c *Controller) begin() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Controller) end() {
	c.busy.Store(false)
}

func (c *Controller) connectedStore() (Storage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateConnected || c.store == nil {
		return nil, ErrDisconnected
	}
	return c.store, nil
}

// Connect opens the backend and lists the root. A failed connect leaves the
// controller disconnected.
func (c *Controller) Connect(ctx context.Context, creds Credentials) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	store, err := c.connector.Connect(ctx, creds)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", creds.Endpoint).Msg("connect failed")
		return newConnectionError("cannot reach "+creds.Endpoint, err)
	}

	c.mu.Lock()
	c.store = store
	c.state = StateConnected
	c.path.Reset()
	c.listing.Reset()
	c.mu.Unlock()

	c.log.Info().Str("endpoint", creds.Endpoint).Msg("connected")
	return c.refresh(ctx, store)
}

// Disconnect drops the backend and discards all navigation state.
func (c *Controller) Disconnect() error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	c.store = nil
	c.state = StateDisconnected
	c.path.Reset()
	c.listing.Reset()
	c.mu.Unlock()

	c.log.Info().Msg("disconnected")
	return nil
}

// Refresh reloads the listing of the current path.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return err
	}
	return c.refresh(ctx, store)
}

func (c *Controller) refresh(ctx context.Context, store Storage) error {
	c.mu.RLock()
	scope := c.path.Current()
	prefix := c.path.ListScope()
	c.mu.RUnlock()

	raw, err := store.List(ctx, prefix, ListOptions{Limit: c.pageSize, SortBy: c.sortBy})
	if err != nil {
		c.log.Error().Err(err).Str("path", scope.String()).Msg("list failed")
		return newOperationError("load files", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		entry := classifyRaw(r)
		// The placeholder of the listed folder itself classifies as a
		// folder with no name.
		if entry.Segment == "" {
			continue
		}
		entries = append(entries, entry)
	}
	c.listing.Replace(entries)
	c.log.Debug().Str("path", scope.String()).Int("entries", len(entries)).Msg("listing refreshed")
	return nil
}

// EnterFolder descends into a folder entry of the current listing.
func (c *Controller) EnterFolder(ctx context.Context, entry Entry) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return err
	}
	if !entry.IsFolder() {
		return fmt.Errorf("%w: %s", ErrNotFolder, entry.DisplayName)
	}

	c.mu.Lock()
	next, err := c.path.Descend(entry.Segment)
	if err == nil {
		c.listing.Reset()
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.log.Info().Str("path", next.String()).Msg("entered folder")
	return c.refresh(ctx, store)
}

// LeaveFolder moves to the parent folder. At the root it does nothing.
func (c *Controller) LeaveFolder(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return err
	}

	c.mu.Lock()
	next, moved := c.path.Ascend()
	if moved {
		c.listing.Reset()
	}
	c.mu.Unlock()
	if !moved {
		return nil
	}

	c.log.Info().Str("path", next.String()).Msg("left folder")
	return c.refresh(ctx, store)
}

// CreateFolder writes the placeholder object for name in the current path.
func (c *Controller) CreateFolder(ctx context.Context, name string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := ValidateSegment(name); err != nil {
		return err
	}

	c.mu.RLock()
	key := c.path.PlaceholderKey(name)
	c.mu.RUnlock()

	if err := store.Upload(ctx, key, bytes.NewReader(nil), 0, UploadOptions{}); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("create folder failed")
		return newOperationError(fmt.Sprintf("create folder %q", name), err)
	}
	c.log.Info().Str("key", key).Msg("folder created")
	return c.refresh(ctx, store)
}

// UploadFiles uploads each file in order into the current path. A failed
// file does not stop the batch; the listing is refreshed once at the end.
func (c *Controller) UploadFiles(ctx context.Context, files []UploadFile) (UploadReport, error) {
	var report UploadReport
	if err := c.begin(); err != nil {
		return report, err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return report, err
	}

	for _, f := range files {
		if err := c.uploadOne(ctx, store, f); err != nil {
			c.log.Warn().Err(err).Str("file", f.Name).Msg("upload failed")
			report.Failed = append(report.Failed, UploadFailure{Name: f.Name, Err: err})
			continue
		}
		report.Succeeded = append(report.Succeeded, f.Name)
	}

	c.log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Msg("upload batch finished")
	return report, c.refresh(ctx, store)
}

func (c *Controller) uploadOne(ctx context.Context, store Storage, f UploadFile) error {
	if err := ValidateSegment(f.Name); err != nil {
		return err
	}
	if f.Open == nil {
		return newOperationError(fmt.Sprintf("upload %q", f.Name), fmt.Errorf("no content"))
	}

	c.mu.RLock()
	key := c.path.KeyFor(f.Name, false)
	c.mu.RUnlock()

	body, err := f.Open()
	if err != nil {
		return newOperationError(fmt.Sprintf("upload %q", f.Name), err)
	}
	defer body.Close()

	opts := UploadOptions{Upsert: true, ContentType: mime.TypeByExtension(filepath.Ext(f.Name))}
	if err := store.Upload(ctx, key, body, f.Size, opts); err != nil {
		return newOperationError(fmt.Sprintf("upload %q", f.Name), err)
	}
	return nil
}

// DeleteEntry removes entry after the gate confirms it. It reports whether
// anything was deleted; a declined confirmation is not an error. Deleting a
// folder only removes its marker and placeholder; when the folder still lists
// afterwards the error wraps ErrFolderNotEmpty.
func (c *Controller) DeleteEntry(ctx context.Context, entry Entry) (bool, error) {
	if err := c.begin(); err != nil {
		return false, err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return false, err
	}

	ok, err := c.gate.Confirm(ctx, fmt.Sprintf("Delete %s %q?", entry.Kind, entry.DisplayName))
	if err != nil {
		return false, err
	}
	if !ok {
		c.log.Debug().Str("entry", entry.Name).Msg("delete declined")
		return false, nil
	}

	c.mu.RLock()
	keys := []string{c.path.KeyFor(entry.Segment, entry.IsFolder())}
	if entry.IsFolder() {
		keys = append(keys, c.path.PlaceholderKey(entry.Segment))
	}
	c.mu.RUnlock()

	if err := store.Remove(ctx, keys); err != nil {
		c.log.Error().Err(err).Strs("keys", keys).Msg("delete failed")
		return false, newOperationError(fmt.Sprintf("delete %q", entry.DisplayName), err)
	}
	c.log.Info().Strs("keys", keys).Msg("deleted")
	if err := c.refresh(ctx, store); err != nil {
		return true, err
	}
	if entry.IsFolder() && c.listed(entry) {
		c.log.Warn().Str("entry", entry.Name).Msg("folder still has objects")
		return true, fmt.Errorf("%w: %s", ErrFolderNotEmpty, entry.DisplayName)
	}
	return true, nil
}

// listed reports whether the current listing still holds an entry with the
// same segment and kind.
func (c *Controller) listed(entry Entry) bool {
	for _, e := range c.listing.Current() {
		if e.Kind == entry.Kind && e.Segment == entry.Segment {
			return true
		}
	}
	return false
}

// DownloadEntry resolves a retrieval URL for a file entry and passes it to
// the downloader. The listing is left untouched.
func (c *Controller) DownloadEntry(ctx context.Context, entry Entry) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	store, err := c.connectedStore()
	if err != nil {
		return "", err
	}
	if entry.IsFolder() {
		return "", fmt.Errorf("%w: %s", ErrNotFile, entry.DisplayName)
	}

	c.mu.RLock()
	key := c.path.KeyFor(entry.Segment, false)
	c.mu.RUnlock()

	ref, err := store.RetrievalURL(ctx, key)
	if err != nil {
		return "", newOperationError(fmt.Sprintf("download %q", entry.DisplayName), err)
	}
	dest, err := c.downloader.Download(ctx, ref, entry.DisplayName)
	if err != nil {
		return "", newOperationError(fmt.Sprintf("download %q", entry.DisplayName), err)
	}
	c.log.Info().Str("key", key).Str("dest", dest).Msg("downloaded")
	return dest, nil
}
