package tuscore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/binarycraft/tuscore/cache"
	"github.com/binarycraft/tuscore/checksum"
	"github.com/binarycraft/tuscore/reader"
	"github.com/binarycraft/tuscore/transport"
)

// defaultWindowCap bounds a single PATCH body, matching the teacher library's
// default chunk size. It is an implementation choice, not protocol-bound (spec §4.6).
const defaultWindowCap = 2 * 1024 * 1024

// ChecksumMode selects whether Upload-Checksum is computed over the whole
// file (sent identically on every PATCH) or freshly per chunk (spec §9).
type ChecksumMode int

const (
	// ChecksumWholeFile sends the same whole-file digest on every PATCH. This
	// is the reference behavior and the default.
	ChecksumWholeFile ChecksumMode = iota
	// ChecksumPerChunk computes a fresh digest over each chunk's bytes. More
	// robust against partial corruption, offered but not the default.
	ChecksumPerChunk
)

// Client drives the upload state machine described in spec §4.6: it holds the
// current Upload and the Transport/Cache collaborators, and exposes the public
// operations of spec §6. A Client drives one Upload at a time; see spec §5 for
// the concurrency model.
type Client struct {
	// APIPath is the fixed URL path segment under which uploads are created
	// and addressed, e.g. "/files".
	APIPath string

	// ChecksumMode selects whole-file (default) or per-chunk checksums.
	ChecksumMode ChecksumMode

	// WindowCap bounds a single PATCH chunk's byte length.
	WindowCap int64

	// Header carries additional caller-supplied headers merged into every
	// request the Client issues. Protocol-defined headers always win on
	// collision (spec §4.3); Header never overrides them.
	Header http.Header

	transport    transport.Transport
	cache        cache.Cache
	algorithm    checksum.Algorithm
	capabilities *transport.Capabilities

	state  State
	upload *Upload
}

// NewClient constructs a Client against the given Transport and Cache
// collaborators. The default checksum algorithm is sha256, per spec §4.2.
func NewClient(t transport.Transport, apiPath string, c cache.Cache) *Client {
	return &Client{
		APIPath:      apiPath,
		ChecksumMode: ChecksumWholeFile,
		WindowCap:    defaultWindowCap,
		transport:    t,
		cache:        c,
		algorithm:    checksum.SHA256,
		state:        StateInit,
	}
}

// State returns the Client's current position in the upload state machine.
func (c *Client) State() State {
	return c.state
}

// SetAlgorithm selects the checksum algorithm used for the current and any
// future Upload. Unknown algorithm names fail fast with ErrConfigurationError,
// before any request is sent (spec §4.2). The algorithm cannot be changed once
// a digest has already been computed for the current Upload (spec §3).
func (c *Client) SetAlgorithm(algo checksum.Algorithm) error {
	if _, ok := checksum.Algorithms[algo]; !ok {
		return fmt.Errorf("%w: unsupported checksum algorithm %q", ErrConfigurationError, algo)
	}
	if c.upload != nil && c.upload.checksummed() {
		return fmt.Errorf("%w: checksum algorithm is immutable once a digest has been computed", ErrConfigurationError)
	}
	c.algorithm = algo
	if c.upload != nil {
		c.upload.Algorithm = algo
	}
	return nil
}

// SetFile points the Client at a local file. name defaults to filepath.Base(path)
// when empty. The file cannot be swapped out once the current Upload has left
// StateInit, unless it has since ended in StateFailed (spec §3: Length is
// immutable once set).
func (c *Client) SetFile(path, name string) error {
	if c.state != StateInit && c.state != StateFailed {
		return fmt.Errorf("%w: cannot change file after upload has started", ErrConfigurationError)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	size, err := reader.Size(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigurationError, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}

	clientKey := ""
	if c.upload != nil {
		clientKey = c.upload.ClientKey
	}
	c.upload = &Upload{
		ClientKey: clientKey,
		Path:      path,
		Filename:  name,
		Length:    size,
		Algorithm: c.algorithm,
	}
	c.state = StateInit
	return nil
}

// SetKey assigns the client-chosen identifier for the current Upload.
func (c *Client) SetKey(key string) {
	if c.upload == nil {
		c.upload = &Upload{Algorithm: c.algorithm}
	}
	c.upload.ClientKey = key
}

// Seek moves the current Upload to offset and marks it partial, deriving a
// "<parent><SEP><suffix>" client key the first time it is called (spec §3,
// §6). Calling it again before Create/Upload just adjusts the offset.
func (c *Client) Seek(offset int64) error {
	if c.upload == nil {
		return fmt.Errorf("%w: no file set before seek", ErrConfigurationError)
	}
	if offset < 0 || offset > c.upload.Length {
		return fmt.Errorf("%w: offset %d out of range [0,%d]", ErrConfigurationError, offset, c.upload.Length)
	}
	if !c.upload.Partial {
		if c.upload.ClientKey == "" {
			return fmt.Errorf("%w: key must be set before seek", ErrConfigurationError)
		}
		c.upload.ClientKey = newPartialKey(c.upload.ClientKey)
		c.upload.Partial = true
	}
	c.upload.Offset = offset
	c.state = StateInit
	return nil
}

// Offset returns the current Upload's offset, and false if neither a file nor a
// key has been set.
func (c *Client) Offset() (int64, bool) {
	if c.upload == nil {
		return 0, false
	}
	return c.upload.Offset, true
}

// Create issues the creation POST for the current Upload and adopts the
// server key from the Location response header (spec §4.6 transition 2).
func (c *Client) Create(ctx context.Context) (string, error) {
	u := c.upload
	if u == nil {
		return "", fmt.Errorf("%w: no file set", ErrConfigurationError)
	}
	if u.ClientKey == "" {
		return "", fmt.Errorf("%w: key must be set before create", ErrConfigurationError)
	}
	if err := c.ensureExtension(ctx, "creation"); err != nil {
		return "", err
	}

	c.state = StateCreating
	meta := map[string]string{"filename": u.Filename}
	headers, err := buildCreateHeaders(u.Length, u.ClientKey, u.Partial, meta)
	if err != nil {
		c.state = StateFailed
		return "", err
	}
	headers = mergeHeaders(headers, c.Header)

	resp, err := c.transport.Do(ctx, http.MethodPost, c.APIPath, headers, nil)
	if err != nil && !isClientOrServerErr(err) {
		c.state = StateFailed
		return "", fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	if resp == nil || resp.Status != http.StatusCreated {
		c.state = StateFailed
		return "", ErrResourceCreateError
	}

	location := resp.Header.Get(headerLocation)
	if location == "" {
		c.state = StateFailed
		return "", fmt.Errorf("%w: creation response missing Location", ErrResourceCreateError)
	}
	u.ServerKey = parseServerKey(location)
	u.Offset = 0
	if v := resp.Header.Get(headerUploadExpires); v != "" {
		if t, perr := time.Parse(time.RFC1123, v); perr == nil {
			u.Expires = &t
		}
	}
	c.cachePut()
	c.state = StateStreaming
	return u.ServerKey, nil
}

// Upload drives the current Upload forward by at most budget bytes, or to
// completion when budget is -1 (spec §4.6). It returns the resulting offset.
func (c *Client) Upload(ctx context.Context, budget int64) (int64, error) {
	u := c.upload
	if u == nil {
		return 0, fmt.Errorf("%w: no file set", ErrConfigurationError)
	}

	if c.state == StateFailed {
		c.state = StateInit // a fresh attempt re-discovers before continuing
	}
	if c.state == StateDone {
		return u.Offset, nil
	}

	if c.state == StateInit {
		if err := c.discover(ctx); err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.state = StateFailed
				return u.Offset, err
			}
			c.state = StateCreating
		}
	}

	if c.state == StateCreating {
		if _, err := c.Create(ctx); err != nil {
			c.state = StateFailed
			return u.Offset, err
		}
	}

	if u.Offset >= u.Length {
		c.state = StateDone
		return u.Offset, nil
	}

	c.state = StateStreaming
	return c.stream(ctx, budget)
}

// Delete removes an upload by key (spec §4.8). 404/410 surface as ErrNotFound;
// any response from the server drops the local cache record, since the server
// no longer considers the resource to exist one way or another. A failed
// capability check or a transport failure returns before the record is dropped.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.ensureExtension(ctx, "termination"); err != nil {
		return err
	}
	resp, err := c.transport.Do(ctx, http.MethodDelete, c.keyPath(key), mergeHeaders(protocolHeader(), c.Header), nil)
	if err != nil && !isClientOrServerErr(err) {
		return fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	if resp == nil {
		return fmt.Errorf("%w: no response", ErrConnectionError)
	}
	defer func() { _ = c.cache.Delete(key) }()

	switch resp.Status {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound, http.StatusGone:
		return ErrNotFound
	default:
		return &ProtocolError{Status: resp.Status, Body: resp.Body}
	}
}

// discover issues the HEAD of spec §4.6 transition 1.
func (c *Client) discover(ctx context.Context) error {
	u := c.upload
	c.state = StateDiscovering

	// Cache as authority during resume (spec §9 OQ-2): a cache hit only
	// supplies a candidate server key, it never substitutes for the HEAD.
	if rec, err := c.cache.Get(u.ClientKey); err == nil && rec.ServerKey != "" {
		u.ServerKey = rec.ServerKey
	}

	resp, err := c.transport.Do(ctx, http.MethodHead, c.location(), mergeHeaders(protocolHeader(), c.Header), nil)
	if err != nil {
		if !isClientOrServerErr(err) {
			return fmt.Errorf("%w: %v", ErrConnectionError, err)
		}
		return ErrNotFound // any HEAD failure, including non-404/410, falls through to CREATING
	}

	if resp.Header.Get(headerTusResumable) == "" {
		return fmt.Errorf("%w: HEAD response missing Tus-Resumable", ErrProtocol)
	}
	offsetHeader := resp.Header.Get(headerUploadOffset)
	if offsetHeader == "" {
		return fmt.Errorf("%w: HEAD response missing Upload-Offset", ErrProtocol)
	}
	offset, perr := strconv.ParseInt(offsetHeader, 10, 64)
	if perr != nil {
		return fmt.Errorf("%w: cannot parse Upload-Offset %q", ErrProtocol, offsetHeader)
	}

	u.Offset = offset
	if u.ServerKey == "" {
		u.ServerKey = u.ClientKey
	}
	if v := resp.Header.Get(headerUploadMeta); v != "" {
		if meta, derr := DecodeMetadata(v); derr == nil {
			if name, ok := meta["filename"]; ok {
				u.Filename = name
			}
		}
	}
	c.cachePut()
	return nil
}

// stream implements spec §4.6 transition 3.
func (c *Client) stream(ctx context.Context, budget int64) (int64, error) {
	u := c.upload

	if budget == 0 {
		if err := c.patchChunk(ctx, nil); err != nil {
			return u.Offset, err
		}
		return u.Offset, nil
	}

	sent := int64(0)
	for u.Offset < u.Length && (budget < 0 || sent < budget) {
		window := c.WindowCap
		if window <= 0 {
			window = defaultWindowCap
		}
		if left := u.Length - u.Offset; window > left {
			window = left
		}
		if budget >= 0 {
			if left := budget - sent; window > left {
				window = left
			}
		}

		chunk, err := reader.Read(u.Path, u.Offset, window)
		if err != nil {
			c.state = StateFailed
			return u.Offset, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}

		before := u.Offset
		if err := c.patchChunk(ctx, chunk); err != nil {
			return u.Offset, err
		}
		sent += u.Offset - before
	}

	if u.Offset >= u.Length {
		c.state = StateDone
	}
	return u.Offset, nil
}

// patchChunk sends a single chunk and folds the response into Upload.Offset.
func (c *Client) patchChunk(ctx context.Context, chunk []byte) error {
	u := c.upload

	checksumHeader, err := c.checksumHeader(chunk)
	if err != nil {
		c.state = StateFailed
		return err
	}

	headers := mergeHeaders(buildPatchHeaders(u.Offset, int64(len(chunk)), u.Partial, checksumHeader), c.Header)
	before := u.Offset

	resp, err := c.transport.Do(ctx, http.MethodPatch, c.location(), headers, bytes.NewReader(chunk))
	if err != nil && !isClientOrServerErr(err) {
		c.state = StateFailed
		return fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	if resp == nil {
		c.state = StateFailed
		return fmt.Errorf("%w: no response", ErrConnectionError)
	}

	// Non-standard "100 Continue" surfaced as a terminal client error is
	// interpreted as the connection having been aborted (spec §9).
	if resp.Status == http.StatusContinue {
		c.state = StateFailed
		return ErrConnectionError
	}

	if resp.Status/100 != 2 {
		switch resp.Status {
		case http.StatusRequestedRangeNotSatisfiable:
			c.state = StateFailed
			return ErrCorruptUpload
		case http.StatusNotFound, http.StatusGone:
			c.state = StateFailed
			return ErrNotFound
		default:
			c.state = StateFailed
			return &ProtocolError{Status: resp.Status, Body: resp.Body}
		}
	}

	if resp.Header.Get(headerTusResumable) == "" {
		c.state = StateFailed
		return fmt.Errorf("%w: PATCH response missing Tus-Resumable", ErrProtocol)
	}
	offsetHeader := resp.Header.Get(headerUploadOffset)
	newOffset, perr := strconv.ParseInt(offsetHeader, 10, 64)
	if perr != nil {
		c.state = StateFailed
		return fmt.Errorf("%w: cannot parse Upload-Offset %q", ErrProtocol, offsetHeader)
	}
	if newOffset < before || (len(chunk) > 0 && newOffset == before) {
		c.state = StateFailed
		return fmt.Errorf("%w: offset did not advance (%d -> %d)", ErrProtocol, before, newOffset)
	}

	u.Offset = newOffset
	if v := resp.Header.Get(headerUploadExpires); v != "" {
		if t, terr := time.Parse(time.RFC1123, v); terr == nil {
			u.Expires = &t
		}
	}
	c.cachePut()
	return nil
}

func (c *Client) checksumHeader(chunk []byte) (string, error) {
	u := c.upload
	var digest string
	var err error
	switch c.ChecksumMode {
	case ChecksumPerChunk:
		digest, err = checksum.DigestBytes(chunk, u.Algorithm)
	default:
		digest, err = u.Checksum()
	}
	if err != nil {
		if errors.Is(err, reader.ErrIO) {
			return "", fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		return "", fmt.Errorf("%w: %v", ErrConfigurationError, err)
	}
	return string(u.Algorithm) + " " + digest, nil
}

func (c *Client) cachePut() {
	u := c.upload
	_ = c.cache.Put(u.ClientKey, cache.Record{
		Offset:    u.Offset,
		ServerKey: u.ServerKey,
		Expires:   u.Expires,
	})
}

func (c *Client) ensureExtension(ctx context.Context, extension string) error {
	if c.capabilities == nil {
		caps, err := transport.DiscoverCapabilities(ctx, c.transport, c.APIPath, c.Header)
		if err != nil {
			return fmt.Errorf("%w: cannot discover server capabilities: %v", ErrConnectionError, err)
		}
		c.capabilities = caps
	}
	if !c.capabilities.Supports(extension) {
		return fmt.Errorf("%w: server does not support %q extension", ErrConfigurationError, extension)
	}
	return nil
}

// location returns the PATCH/HEAD request path for the current upload: its
// server key once known, else its client key.
func (c *Client) location() string {
	u := c.upload
	key := u.ServerKey
	if key == "" {
		key = u.ClientKey
	}
	return c.keyPath(key)
}

func (c *Client) keyPath(key string) string {
	return strings.TrimRight(c.APIPath, "/") + "/" + key
}

func isClientOrServerErr(err error) bool {
	return errors.Is(err, transport.ErrClient) || errors.Is(err, transport.ErrServer)
}
