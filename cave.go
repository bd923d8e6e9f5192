package procmem

// maxCaveAllocAttempts bounds the retry loop in CreateCave (spec.md §4.6
// create_cave step 2: "Up to 10 times").
const maxCaveAllocAttempts = 10

// preferredStep is how far CreateCave nudges its preferred address forward
// between failed allocation attempts (spec.md §4.6 step 2).
const preferredStep = 0x10000

func alignUp(x, granularity uintptr) uintptr {
	if granularity == 0 {
		return x
	}
	return ((x + granularity - 1) / granularity) * granularity
}

func alignDown(x, granularity uintptr) uintptr {
	if granularity == 0 {
		return x
	}
	return (x / granularity) * granularity
}

func absDiff(a, b uintptr) uintptr {
	if a > b {
		return a - b
	}
	return b - a
}

// FindFreeBlockForRegion walks the foreign process's virtual memory map
// looking for a free, allocation-granularity-aligned slot of at least size
// bytes as close as possible to donor, within the ±0x70000000 (default)
// half-window the Session's Config specifies (spec.md §4.6). Returns 0 if
// no such slot exists; CreateCave falls back to an OS-chosen address in
// that case.
func (s *Session) FindFreeBlockForRegion(donor uintptr, size uintptr) uintptr {
	if !s.Active() {
		return 0
	}
	info := s.os.SystemInfo()
	granularity := uintptr(info.AllocationGranularity)
	if granularity == 0 {
		granularity = 0x10000
	}

	window := s.config.SearchWindow
	if window == 0 {
		window = defaultSearchWindow
	}

	lo := info.MinAppAddress
	if donor > window && donor-window > lo {
		lo = donor - window
	}
	hi := info.MaxAppAddress
	if donor+window < hi || hi == 0 {
		if donor+window > lo {
			hi = donor + window
		}
	}
	if info.MaxAppAddress != 0 && hi > info.MaxAppAddress {
		hi = info.MaxAppAddress
	}

	var best uintptr
	cursor := lo
	for {
		region, ok := s.os.QueryRegion(s.handle, cursor)
		if !ok {
			break
		}
		s.metrics.regionsWalked.Inc()

		if region.BaseAddress > hi {
			break
		}

		if region.State == StateFree && region.RegionSize > size {
			if cand, ok := candidateInRegion(region, donor, size, granularity); ok {
				if best == 0 || absDiff(cand, donor) < absDiff(best, donor) {
					best = cand
				}
			}
		}

		regionSpan := alignUp(region.RegionSize, granularity)
		next := region.BaseAddress + regionSpan
		if next <= cursor || next >= hi {
			break
		}
		cursor = next
	}
	return best
}

// candidateInRegion computes the aligned candidate address inside a free
// region, following spec.md §4.6 step 6a: align up to the allocation
// granularity; if the aligned start lies below donor, last-fit toward the
// end of the region (as close to donor as possible from below) and
// re-align downward; if the result still lands above donor, clamp down to
// donor and re-align downward. Returns ok=false if no aligned slot of size
// bytes fits in the region at all.
func candidateInRegion(region Region, donor, size, granularity uintptr) (uintptr, bool) {
	regionEnd := region.BaseAddress + region.RegionSize
	alignedStart := alignUp(region.BaseAddress, granularity)
	if alignedStart+size > regionEnd {
		return 0, false
	}

	cand := alignedStart
	if cand < donor {
		lastFit := alignDown(regionEnd-size, granularity)
		if lastFit >= alignedStart {
			cand = lastFit
		}
		if cand > donor {
			clamped := alignDown(donor, granularity)
			if clamped >= alignedStart {
				cand = clamped
			}
		}
	}
	if cand+size > regionEnd {
		return 0, false
	}
	return cand, true
}

// CreateCave allocates size bytes of executable memory within reach of
// donor (spec.md §4.6 create_cave). Up to maxCaveAllocAttempts times it
// asks FindFreeBlockForRegion for a hint near a preferred address that
// advances by preferredStep on each failure, then falls back to an
// OS-chosen, non-executable allocation (spec.md §9's documented, logged
// fallback). Returns a *Cave with Address == 0 on total failure.
func (s *Session) CreateCave(donor, size uintptr) *Cave {
	if !s.Active() {
		return &Cave{Donor: donor}
	}
	if size == 0 {
		size = s.config.CaveSize
	}
	if size == 0 {
		size = defaultCaveSize
	}

	preferred := donor
	for i := 0; i < maxCaveAllocAttempts; i++ {
		hint := s.FindFreeBlockForRegion(preferred, size)
		if addr := s.os.AllocInProcess(s.handle, hint, size, ProtectExecuteReadWrite); addr != 0 {
			cave := &Cave{Donor: donor, Address: addr, Executable: true}
			s.caves[addr] = cave
			s.metrics.cavesInstalled.Inc()
			s.log.WithField("cave", addr).Debug("cave allocated (executable)")
			return cave
		}
		preferred += preferredStep
	}

	if addr := s.os.AllocInProcess(s.handle, 0, size, ProtectReadWrite); addr != 0 {
		s.diag.Warn("CreateCave", "executable allocation failed after all attempts; falling back to non-executable memory (DEP will likely block execution)")
		cave := &Cave{Donor: donor, Address: addr, Executable: false}
		s.caves[addr] = cave
		s.metrics.cavesInstalled.Inc()
		return cave
	}

	s.diag.OSFailure("CreateCave", "allocation failed in every attempt")
	return &Cave{Donor: donor}
}

// FreeCave releases a cave's allocation with release semantics (spec.md
// §4.7 "Freeing"). It does not revert the donor-site patch — the caller
// must restore the original bytes separately. Accepts a bare address so a
// caller who never held onto the *Cave is still able to free it (spec.md
// §9's documented registry leak scenario).
func (s *Session) FreeCave(caveAddr uintptr) bool {
	if !s.Active() || caveAddr == 0 {
		return false
	}
	ok := s.os.FreeInProcess(s.handle, caveAddr)
	if ok {
		delete(s.caves, caveAddr)
		s.metrics.cavesFreed.Inc()
		s.log.WithField("cave", caveAddr).Info("cave freed")
	} else {
		s.diag.OSFailure("FreeCave", "VirtualFreeEx failed")
	}
	return ok
}
