package solver

import "math"

// UpdateEpsilon is the smallest count change worth reporting.
const UpdateEpsilon = 1e-6

// ExtractUpdates keeps the entries of raw that are not (nearly) zero and
// differ from current by more than UpdateEpsilon. IDs missing from current
// count as changed.
func ExtractUpdates(current, raw map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for id, v := range raw {
		if v <= UpdateEpsilon {
			continue
		}
		if c, ok := current[id]; ok && math.Abs(v-c) <= UpdateEpsilon {
			continue
		}
		out[id] = v
	}
	return out
}
