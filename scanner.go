package procmem

// wildcardByte is the sentinel in a byte pattern that matches any byte
// (spec.md §3 "Byte pattern").
const wildcardByte = 0x00

// ScanMemory walks committed, readable regions of the foreign address
// space starting at start (spec.md §4.5 C5) and returns every address
// where pattern matches, wildcards (0x00) included, in scan order.
//
// The source this spec is drawn from filtered regions with
// `Protect != PAGE_READWRITE || Protect != PAGE_READONLY`, a tautology
// that disables the filter entirely (spec.md §4.5's documented anomaly).
// This implementation applies the corrected filter: include regions whose
// protection is readable (RW, RO, EXECUTE_READ, EXECUTE_READWRITE).
func (s *Session) ScanMemory(pattern []byte, start uintptr) []uintptr {
	if !s.Active() || len(pattern) == 0 {
		s.diag.InvalidInput("ScanMemory", "not attached or empty pattern")
		return nil
	}

	var matches []uintptr
	cursor := start
	for {
		region, ok := s.os.QueryRegion(s.handle, cursor)
		if !ok {
			break
		}
		s.metrics.regionsWalked.Inc()
		s.log.WithField("base", region.BaseAddress).WithField("size", region.RegionSize).
			WithField("state", region.State).WithField("protect", region.Protect).
			Debug("scanner region walk")

		if region.State == StateCommit && region.Protect.Readable() {
			matches = append(matches, s.scanRegion(region, pattern)...)
		}

		next := region.BaseAddress + region.RegionSize
		if next <= cursor {
			break // overflow / non-advancing guard
		}
		cursor = next
	}
	s.metrics.matchesFound.Add(float64(len(matches)))
	return matches
}

func (s *Session) scanRegion(region Region, pattern []byte) []uintptr {
	if region.RegionSize == 0 || region.RegionSize > (1<<32) {
		return nil
	}
	buf, ok := s.os.ReadMemory(s.handle, region.BaseAddress, int(region.RegionSize))
	if !ok || len(buf) < len(pattern) {
		return nil
	}
	s.metrics.bytesRead.Add(float64(len(buf)))

	var out []uintptr
	last := len(buf) - len(pattern)
	for i := 0; i <= last; i++ {
		if matchPattern(buf[i:i+len(pattern)], pattern) {
			out = append(out, region.BaseAddress+uintptr(i))
		}
	}
	return out
}

// matchPattern matches window against pattern byte-for-byte, treating
// wildcardByte entries in pattern as matching anything.
func matchPattern(window, pattern []byte) bool {
	for j := range pattern {
		if pattern[j] == wildcardByte {
			continue
		}
		if window[j] != pattern[j] {
			return false
		}
	}
	return true
}

// ScanMemoryText is the spec.md §6 scan_memory(pattern, start?) overload
// taking the hex-signature-string grammar.
func (s *Session) ScanMemoryText(patternText string, start uintptr) []uintptr {
	pattern, ok := ParseHexBytes(patternText)
	if !ok {
		s.diag.InvalidInput("ScanMemoryText", "malformed pattern: "+patternText)
		return nil
	}
	return s.ScanMemory(pattern, start)
}
