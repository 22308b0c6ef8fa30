package tuscore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binarycraft/tuscore/checksum"
)

const (
	// OffsetUnset means the Client has not yet discovered or created the
	// upload's remote offset.
	OffsetUnset = -1

	// PartialKeySeparator is the reserved, process-wide constant that
	// delimits a partial upload's client key from its parent (spec §3, §5).
	PartialKeySeparator = "+"
)

// Upload is the central entity of spec §3: a client key, the server key it
// resolved to, the local file behind it, its length and offset, and the
// checksum algorithm used to verify it. 0 <= Offset <= Length always holds;
// Length and Algorithm are immutable once set/used, enforced by Client.
type Upload struct {
	// ClientKey is the identifier the client proposes or accepts on creation.
	ClientKey string
	// ServerKey is the identifier returned in Location on creation; the
	// canonical URL-addressable identity thereafter.
	ServerKey string

	// Path is the absolute local file path backing this upload.
	Path string
	// Filename is transported as the "filename" Upload-Metadata entry.
	Filename string
	// Length is the total upload size in bytes.
	Length int64
	// Algorithm is the checksum algorithm used for this upload.
	Algorithm checksum.Algorithm

	// Offset is the next byte index to send; the number of bytes the server
	// has durably accepted so far.
	Offset int64
	// Partial marks this as a partial upload destined for concatenation.
	Partial bool
	// Expires is when the server will discard this upload, if it told us.
	Expires *time.Time

	checksumOnce sync.Once
	checksumVal  string
	checksumErr  error
}

// Checksum returns the whole-file digest of Upload.Path under Upload.Algorithm,
// computing and memoizing it on first call (spec §4.2). Once computed, the
// Algorithm this Upload uses may no longer change.
func (u *Upload) Checksum() (string, error) {
	u.checksumOnce.Do(func() {
		u.checksumVal, u.checksumErr = checksum.DigestFile(u.Path, u.Algorithm)
	})
	return u.checksumVal, u.checksumErr
}

// checksummed reports whether Checksum has already run, used to enforce that
// Algorithm is immutable once a digest has been computed.
func (u *Upload) checksummed() bool {
	return u.checksumVal != "" || u.checksumErr != nil
}

// newPartialKey derives a partial upload's client key from its parent: spec §3
// requires "<parent><SEP><unique-suffix>" with the suffix unique within the
// process. A UUID supplies that uniqueness -- google/uuid is already part of
// this stack's dependency pool (cs3org/reva, tus/tusd all reach for it the
// same way to mint opaque, collision-free identifiers).
func newPartialKey(parent string) string {
	return parent + PartialKeySeparator + uuid.NewString()
}
