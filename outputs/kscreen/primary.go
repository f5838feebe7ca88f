package kscreen

// enabledOf returns whether an output record is enabled, looking at
// "enabled" first and "connected" second.
func enabledOf(r record) (bool, bool) {
	for _, key := range []string{"enabled", "connected"} {
		if v, ok := r[key]; ok {
			if b, ok := asBool(v); ok {
				return b, true
			}
		}
	}
	return false, false
}

// resolvePrimary returns the index of the primary output among records, or -1.
//
// Only enabled records qualify. The first record explicitly flagged primary
// wins over any priority. Without such a flag, the lowest priority wins, and
// the earlier record on a tie.
func resolvePrimary(records []record) int {
	primary := -1
	explicit := false
	var lowest int64

	for i, r := range records {
		if r == nil {
			continue
		}
		if enabled, ok := enabledOf(r); !ok || !enabled {
			continue
		}

		if flag, ok := asBool(r["primary"]); ok && flag {
			if !explicit {
				primary = i
				explicit = true
			}
			continue
		}
		if explicit {
			continue
		}

		if priority, ok := asInt(r["priority"]); ok && (primary < 0 || priority < lowest) {
			primary = i
			lowest = priority
		}
	}

	return primary
}
