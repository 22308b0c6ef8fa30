package tuscore

import (
	"errors"
	"fmt"
)

var (
	// ErrIOFailure is returned when the local file cannot be opened, seeked or read.
	ErrIOFailure = errors.New("tuscore: local file I/O failed")

	// ErrConfigurationError is returned for an unsupported checksum algorithm, a
	// missing local file, or a missing key before an operation that requires one.
	ErrConfigurationError = errors.New("tuscore: invalid client configuration")

	// ErrConnectionError is returned when the transport could not reach the
	// server, was interrupted mid-request, or reported the pseudo-terminal
	// "100 Continue" case described in spec §9.
	ErrConnectionError = errors.New("tuscore: could not reach the server")

	// ErrResourceCreateError is returned when a creation POST did not answer
	// 201 Created, or a concat response lacked a checksum.
	ErrResourceCreateError = errors.New("tuscore: upload could not be created")

	// ErrNotFound is returned when the server answers 404 or 410 to a HEAD or DELETE.
	ErrNotFound = errors.New("tuscore: upload does not exist on the server")

	// ErrCorruptUpload is returned when a PATCH comes back 416: the server
	// rejected the chunk's checksum or offset and local resume is no longer safe.
	ErrCorruptUpload = errors.New("tuscore: server rejected the uploaded chunk")

	// ErrProtocol is returned for any other unexpected status, a non-advancing
	// offset, or a response missing a required protocol header.
	ErrProtocol = errors.New("tuscore: unexpected tus protocol response")
)

// ProtocolError carries the status and body of an unexpected server response
// alongside the ErrProtocol sentinel, so callers can both errors.Is(err, ErrProtocol)
// and inspect what the server actually sent.
type ProtocolError struct {
	Status int
	Body   []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tuscore: unexpected response status %d", e.Status)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}
