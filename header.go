package tuscore

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/binarycraft/tuscore/internal/headerutil"
)

// ProtocolVersion is the tus protocol version this client speaks, sent as
// Tus-Resumable on every request.
const ProtocolVersion = "1.0.0"

const (
	headerTusResumable  = "Tus-Resumable"
	headerUploadLength  = "Upload-Length"
	headerUploadKey     = "Upload-Key"
	headerUploadOffset  = "Upload-Offset"
	headerUploadMeta    = "Upload-Metadata"
	headerUploadSum     = "Upload-Checksum"
	headerUploadConcat  = "Upload-Concat"
	headerUploadExpires = "Upload-Expires"
	headerContentType   = "Content-Type"
	headerContentLength = "Content-Length"
	headerLocation      = "Location"

	contentTypeOctetStream = "application/offset+octet-stream"
)

// EncodeMetadata converts a map of values to the tus Upload-Metadata header
// format: a comma-separated list of "<key> <base64(value)>" pairs. Keys must
// not contain spaces.
func EncodeMetadata(metadata map[string]string) (string, error) {
	var encoded []string
	for k, v := range metadata {
		if strings.Contains(k, " ") {
			return "", fmt.Errorf("%w: metadata key %q contains spaces", ErrConfigurationError, k)
		}
		encoded = append(encoded, fmt.Sprintf("%s %s", k, base64.StdEncoding.EncodeToString([]byte(v))))
	}
	return strings.Join(encoded, ","), nil
}

// DecodeMetadata parses the tus Upload-Metadata header format.
func DecodeMetadata(raw string) (map[string]string, error) {
	res := make(map[string]string)
	if raw == "" {
		return res, nil
	}
	for _, item := range strings.Split(raw, ",") {
		kv := strings.SplitN(item, " ", 2)
		if len(kv) <= 1 {
			return res, fmt.Errorf("%w: metadata item %q has bad format", ErrProtocol, item)
		}
		val, err := base64.StdEncoding.DecodeString(kv[1])
		if err != nil {
			return res, fmt.Errorf("%w: metadata item %q: %v", ErrProtocol, item, err)
		}
		res[kv[0]] = string(val)
	}
	return res, nil
}

// protocolHeader returns the header set every request carries regardless of
// method.
func protocolHeader() http.Header {
	h := http.Header{}
	h.Set(headerTusResumable, ProtocolVersion)
	return h
}

// buildCreateHeaders assembles the header set for a creation POST (spec §4.3).
// metadata must always carry "filename" when a name is known -- the caller is
// responsible for adding it to meta before calling this.
func buildCreateHeaders(length int64, key string, partial bool, meta map[string]string) (http.Header, error) {
	h := protocolHeader()
	h.Set(headerContentLength, "0")
	if key != "" {
		h.Set(headerUploadKey, key)
	}
	if partial {
		h.Set(headerUploadConcat, "partial")
	}
	if length >= 0 {
		h.Set(headerUploadLength, strconv.FormatInt(length, 10))
	}
	if len(meta) > 0 {
		encoded, err := EncodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		h.Set(headerUploadMeta, encoded)
	}
	return h, nil
}

// buildPatchHeaders assembles the header set for a single PATCH chunk.
func buildPatchHeaders(offset, contentLength int64, partial bool, checksumHeader string) http.Header {
	h := protocolHeader()
	h.Set(headerContentType, contentTypeOctetStream)
	h.Set(headerContentLength, strconv.FormatInt(contentLength, 10))
	h.Set(headerUploadOffset, strconv.FormatInt(offset, 10))
	if partial {
		h.Set(headerUploadConcat, "partial")
	}
	if checksumHeader != "" {
		h.Set(headerUploadSum, checksumHeader)
	}
	return h
}

// mergeHeaders overlays user-supplied headers onto the protocol header set,
// dropping any user key that collides with a protocol-defined one -- user
// headers must never override protocol headers (spec §8 invariant). Shared
// with concat via internal/headerutil since concat and the root package
// deliberately don't import each other.
func mergeHeaders(protocol, user http.Header) http.Header {
	return headerutil.Merge(protocol, user)
}

// parseServerKey extracts the server key from a Location header value:
// the final path segment, relative to base+apiPath.
func parseServerKey(location string) string {
	location = strings.TrimRight(location, "/")
	if idx := strings.LastIndex(location, "/"); idx >= 0 {
		return location[idx+1:]
	}
	return location
}
