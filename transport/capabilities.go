package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Capabilities holds the features and limits a tus server advertises over
// OPTIONS. This is not part of spec.md's distilled surface, but the teacher
// library gates four of its six public methods on it, so discovery is kept
// here as an opt-in helper the state machine calls before any operation that
// needs an extension the server might not support.
type Capabilities struct {
	Extensions         []string
	MaxSize            int64
	ProtocolVersions   []string
	ChecksumAlgorithms []string
}

// Supports reports whether the server advertised the named extension, e.g.
// "creation", "concatenation", "checksum", "termination".
func (c *Capabilities) Supports(extension string) bool {
	if c == nil {
		return false
	}
	for _, e := range c.Extensions {
		if e == extension {
			return true
		}
	}
	return false
}

// DiscoverCapabilities issues an OPTIONS request against apiPath and parses
// the Tus-Extension, Tus-Max-Size, Tus-Version and Tus-Checksum-Algorithm
// response headers. header carries any additional headers the caller wants
// on the request (e.g. auth); a nil header is fine.
func DiscoverCapabilities(ctx context.Context, t Transport, apiPath string, header http.Header) (*Capabilities, error) {
	resp, err := t.Do(ctx, http.MethodOptions, apiPath, header, nil)
	if err != nil {
		return nil, err
	}
	switch resp.Status {
	case http.StatusNoContent, http.StatusOK:
	default:
		return nil, fmt.Errorf("unexpected capabilities response status %d", resp.Status)
	}

	c := &Capabilities{}
	if v := resp.Header.Get("Tus-Max-Size"); v != "" {
		if c.MaxSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("cannot parse Tus-Max-Size %q: %w", v, err)
		}
	}
	if v := resp.Header.Get("Tus-Extension"); v != "" {
		c.Extensions = strings.Split(v, ",")
	}
	if v := resp.Header.Get("Tus-Version"); v != "" {
		c.ProtocolVersions = strings.Split(v, ",")
	}
	if v := resp.Header.Get("Tus-Checksum-Algorithm"); v != "" {
		c.ChecksumAlgorithms = strings.Split(v, ",")
	}
	return c, nil
}
