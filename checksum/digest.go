package checksum

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/binarycraft/tuscore/reader"
)

// ErrUnsupportedAlgorithm is returned by DigestFile and DigestBytes when the
// requested algorithm is not a key of Algorithms. The name is matched exactly;
// it is not normalized the way GetAlgorithm normalizes it.
var ErrUnsupportedAlgorithm = errors.New("checksum: unsupported algorithm")

// digestWindow bounds how much of the file is held in memory at once while
// streaming it through the hash in DigestFile.
const digestWindow = 8 << 20 // 8 MiB

// DigestFile computes the digest of the whole file at path under algo, reading
// it in fixed-size windows via reader.Read rather than loading it wholesale.
// The result is the algorithm's digest, base64-encoded, per spec §4.2.
func DigestFile(path string, algo Algorithm) (string, error) {
	newHash, ok := Algorithms[algo]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	size, err := reader.Size(path)
	if err != nil {
		return "", err
	}

	h := newHash()
	for offset := int64(0); offset < size; {
		window := int64(digestWindow)
		if remaining := size - offset; window > remaining {
			window = remaining
		}
		chunk, err := reader.Read(path, offset, window)
		if err != nil {
			return "", err
		}
		if len(chunk) == 0 {
			break
		}
		h.Write(chunk)
		offset += int64(len(chunk))
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes computes the digest of b under algo and returns it base64-encoded.
// Used for per-chunk checksum mode, where the digest is computed over the bytes
// of a single PATCH body rather than the whole file.
func DigestBytes(b []byte, algo Algorithm) (string, error) {
	newHash, ok := Algorithms[algo]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	h := newHash()
	h.Write(b)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
