package checksum

import (
	"encoding/base64"
	"hash"
	"io"
)

// HashBase64ReadWriter exposes the running digest of a hash.Hash as an io.Reader
// of its base64 text, optionally prefixed (e.g. "sha1 "). It is used to produce
// the Upload-Checksum trailer value once a request body has been fully read,
// without materializing the whole body in memory to compute the digest.
type HashBase64ReadWriter struct {
	h      hash.Hash
	prefix string
	buf    []byte
	pos    int
}

// NewHashBase64ReadWriter constructs a HashBase64ReadWriter over h. prefix, if
// given, is emitted verbatim before the base64 digest.
func NewHashBase64ReadWriter(h hash.Hash, prefix ...string) *HashBase64ReadWriter {
	p := ""
	if len(prefix) > 0 {
		p = prefix[0]
	}
	return &HashBase64ReadWriter{h: h, prefix: p}
}

// Write feeds more data into the underlying hash.
func (rw *HashBase64ReadWriter) Write(p []byte) (int, error) {
	return rw.h.Write(p)
}

// Read drains the prefix followed by the base64-encoded digest computed so far.
// The digest text is rendered lazily on first Read, so it reflects everything
// written up to that point.
func (rw *HashBase64ReadWriter) Read(p []byte) (n int, err error) {
	if rw.buf == nil {
		sum := rw.h.Sum(nil)
		rw.buf = []byte(rw.prefix + base64.StdEncoding.EncodeToString(sum))
	}
	if rw.pos >= len(rw.buf) {
		return 0, io.EOF
	}
	n = copy(p, rw.buf[rw.pos:])
	rw.pos += n
	return n, nil
}
