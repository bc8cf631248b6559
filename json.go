//go:build linux

package codegoat

import "encoding/json"

// JSON renders v as indented JSON for embedding in logs or an FFI
// response body. Serialization failure is not modeled as a possible
// outcome of a judgment (Verdict contains no cyclic or unmarshalable
// fields), but the fallback keeps this always returning well-formed
// JSON even if that ever changes.
func (v Verdict) JSON() string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
