// Package concat implements the Concatenation Coordinator of spec §4.7: it
// turns a set of already-finished partial uploads into one final object. It
// never mints partial keys itself -- that happens in Client.Seek in the root
// package -- it only ever consumes keys it is handed.
package concat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/binarycraft/tuscore/internal/headerutil"
	"github.com/binarycraft/tuscore/transport"
)

// ErrIncomplete is returned when Concat is asked to finalize zero partial keys.
var ErrIncomplete = fmt.Errorf("concat: no partial keys given")

// ErrCreateFailed is returned when the final creation request does not answer
// 201 Created, or its body does not carry the expected checksum field.
var ErrCreateFailed = fmt.Errorf("concat: final upload could not be created")

// finalResponse mirrors the JSON body a concatenation POST answers with,
// "data": {"checksum": "<algo> <digest>"}.
type finalResponse struct {
	Data struct {
		Checksum string `json:"checksum"`
	} `json:"data"`
}

// Coordinator issues the final concatenation POST against a tus server's
// creation endpoint.
type Coordinator struct {
	// Header carries additional caller-supplied headers merged into the
	// creation request. Protocol-defined headers always win on collision
	// (spec §4.3); Header never overrides them.
	Header http.Header

	transport transport.Transport
	apiPath   string
}

// NewCoordinator returns a Coordinator that creates final uploads under apiPath.
func NewCoordinator(t transport.Transport, apiPath string) *Coordinator {
	return &Coordinator{transport: t, apiPath: apiPath}
}

// Concat issues "Upload-Concat: final;k1 k2 ..." against the creation endpoint,
// proposing finalKey as the resulting object's client-chosen identifier via
// Upload-Key, and returns the checksum the server reports for the assembled
// object (spec §4.7, §6 concat(finalKey, partials...) → finalChecksum).
func (c *Coordinator) Concat(ctx context.Context, finalKey string, partialKeys ...string) (checksum string, err error) {
	if len(partialKeys) == 0 {
		return "", ErrIncomplete
	}

	h := http.Header{}
	h.Set("Tus-Resumable", "1.0.0")
	h.Set("Content-Length", "0")
	if finalKey != "" {
		h.Set("Upload-Key", finalKey)
	}
	h.Set("Upload-Concat", "final;"+strings.Join(partialKeys, " "))
	h = headerutil.Merge(h, c.Header)

	resp, err := c.transport.Do(ctx, http.MethodPost, c.apiPath, h, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	if resp.Status != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d", ErrCreateFailed, resp.Status)
	}

	if len(resp.Body) == 0 {
		return "", fmt.Errorf("%w: response missing checksum", ErrCreateFailed)
	}
	var parsed finalResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil || parsed.Data.Checksum == "" {
		return "", fmt.Errorf("%w: response missing checksum", ErrCreateFailed)
	}
	return parsed.Data.Checksum, nil
}
