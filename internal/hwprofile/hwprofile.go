// Package hwprofile computes the deterministic hardware_profile_hash
// invariant from spec.md §3: identical (hardware_profile, hardware_manifest)
// pairs must hash identically, and any change to either must change the
// hash. BIOS and the simulation both call Hash at startup and cache the
// result so it can be compared for agreement (spec.md §3 invariant).
package hwprofile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash computes "sha256:" + sha256_hex(canonical_json({hardware_profile,
// hardware_manifest})): the two inputs are combined into a single document
// under those two keys, then that one document is canonicalized (map keys
// sorted, independent of Go map iteration order) and hashed.
func Hash(profile, manifest map[string]any) (string, error) {
	combined := map[string]any{
		"hardware_profile":  profile,
		"hardware_manifest": manifest,
	}
	doc, err := canonicalJSON(combined)
	if err != nil {
		return "", fmt.Errorf("canonicalize hardware profile/manifest: %w", err)
	}

	h := sha256.New()
	h.Write(doc)
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON marshals v after normalize has walked it recursively,
// so key order in the input map never affects the output bytes: Go's
// encoding/json sorts map[string]any keys lexicographically on Marshal.
func canonicalJSON(v map[string]any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nv, err := normalize(t[k])
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			nv, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
