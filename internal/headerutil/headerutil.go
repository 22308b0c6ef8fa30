// Package headerutil holds the one piece of header-merging logic shared by
// the root package and concat, which do not import one another.
package headerutil

import "net/http"

// Merge overlays user-supplied headers onto the protocol header set,
// dropping any user key that collides with a protocol-defined one -- user
// headers must never override protocol headers (spec §4.3).
func Merge(protocol, user http.Header) http.Header {
	merged := protocol.Clone()
	for k, vv := range user {
		if merged.Get(k) != "" {
			continue
		}
		for _, v := range vv {
			merged.Add(k, v)
		}
	}
	return merged
}
