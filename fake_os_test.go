package procmem

import "fmt"

// fakeEnv is an in-memory stand-in for a real Windows target, implementing
// both osBridge and processLister. It lets C2-C7 be exercised without a
// real process to attach to — osBridge exists as an interface precisely
// so this substitution is possible (see osbridge.go).
type fakeEnv struct {
	pid     uint32
	exe     string
	modules []ModuleInfo

	opened bool
	handle Handle
	closes int

	mem     map[uintptr]byte
	regions []fakeRegion

	minAddr, maxAddr, granularity uintptr
}

type fakeRegion struct {
	base, size uintptr
	state      State
	protect    Protect
}

// newFakeEnv builds a small fake address space [minAddr, maxAddr) split
// into the given regions, which must be contiguous and cover the whole
// range (tests construct this directly so region layout is explicit).
func newFakeEnv(pid uint32, exe string, minAddr, maxAddr, granularity uintptr, regions []fakeRegion) *fakeEnv {
	return &fakeEnv{
		pid:         pid,
		exe:         exe,
		mem:         make(map[uintptr]byte),
		regions:     regions,
		minAddr:     minAddr,
		maxAddr:     maxAddr,
		granularity: granularity,
	}
}

func (f *fakeEnv) ListProcesses() ([]ProcessInfo, bool) {
	return []ProcessInfo{{PID: f.pid, ExeFile: f.exe}}, true
}

func (f *fakeEnv) ListModules(pid uint32) ([]ModuleInfo, bool) {
	if pid != f.pid {
		return nil, false
	}
	return f.modules, true
}

func (f *fakeEnv) OpenProcess(pid uint32, rights Rights) (Handle, bool) {
	if pid != f.pid {
		return 0, false
	}
	f.opened = true
	f.handle = 1
	return f.handle, true
}

func (f *fakeEnv) CloseHandle(h Handle) bool {
	if !f.opened || h != f.handle {
		return false
	}
	f.opened = false
	f.handle = 0
	f.closes++
	return true
}

func (f *fakeEnv) regionAt(addr uintptr) (int, bool) {
	for i, r := range f.regions {
		if addr >= r.base && addr < r.base+r.size {
			return i, true
		}
	}
	return 0, false
}

func (f *fakeEnv) ReadMemory(h Handle, addr uintptr, n int) ([]byte, bool) {
	if !f.opened || h != f.handle || n <= 0 {
		return nil, false
	}
	idx, ok := f.regionAt(addr)
	if !ok || f.regions[idx].state != StateCommit {
		return nil, false
	}
	if addr+uintptr(n) > f.regions[idx].base+f.regions[idx].size {
		return nil, false
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = f.mem[addr+uintptr(i)]
	}
	return out, true
}

func (f *fakeEnv) WriteMemory(h Handle, addr uintptr, data []byte) bool {
	if !f.opened || h != f.handle || len(data) == 0 {
		return false
	}
	idx, ok := f.regionAt(addr)
	if !ok || f.regions[idx].state != StateCommit {
		return false
	}
	if addr+uintptr(len(data)) > f.regions[idx].base+f.regions[idx].size {
		return false
	}
	if !f.regions[idx].protect.Readable() || f.regions[idx].protect == ProtectReadOnly {
		return false
	}
	for i, b := range data {
		f.mem[addr+uintptr(i)] = b
	}
	return true
}

func (f *fakeEnv) QueryRegion(h Handle, addr uintptr) (Region, bool) {
	if !f.opened || h != f.handle {
		return Region{}, false
	}
	if addr >= f.maxAddr {
		return Region{}, false
	}
	idx, ok := f.regionAt(addr)
	if !ok {
		return Region{}, false
	}
	r := f.regions[idx]
	return Region{
		BaseAddress:    r.base,
		AllocationBase: r.base,
		RegionSize:     r.size,
		State:          r.state,
		Protect:        r.protect,
		Type:           TypePrivate,
	}, true
}

// AllocInProcess splits a free region to satisfy the request, honoring
// hint when it names a free region with enough room, and otherwise
// scanning for the first sufficiently large free region (simulating
// VirtualAllocEx's "hint=0 means OS chooses").
func (f *fakeEnv) AllocInProcess(h Handle, hint uintptr, size uintptr, protect Protect) uintptr {
	if !f.opened || h != f.handle || size == 0 {
		return 0
	}

	place := func(idx int, start uintptr) uintptr {
		r := f.regions[idx]
		var replacement []fakeRegion
		if start > r.base {
			replacement = append(replacement, fakeRegion{base: r.base, size: start - r.base, state: StateFree})
		}
		replacement = append(replacement, fakeRegion{base: start, size: size, state: StateCommit, protect: protect})
		end := start + size
		if end < r.base+r.size {
			replacement = append(replacement, fakeRegion{base: end, size: r.base + r.size - end, state: StateFree})
		}
		f.regions = append(f.regions[:idx], append(replacement, f.regions[idx+1:]...)...)
		return start
	}

	if hint != 0 {
		if idx, ok := f.regionAt(hint); ok {
			r := f.regions[idx]
			if r.state == StateFree && hint+size <= r.base+r.size {
				return place(idx, hint)
			}
		}
	}

	for idx, r := range f.regions {
		if r.state == StateFree && r.size >= size {
			start := alignUp(r.base, f.granularity)
			if start+size <= r.base+r.size {
				return place(idx, start)
			}
		}
	}
	return 0
}

func (f *fakeEnv) FreeInProcess(h Handle, addr uintptr) bool {
	if !f.opened || h != f.handle {
		return false
	}
	idx, ok := f.regionAt(addr)
	if !ok || f.regions[idx].base != addr || f.regions[idx].state != StateCommit {
		return false
	}
	f.regions[idx].state = StateFree
	f.regions[idx].protect = 0
	return true
}

func (f *fakeEnv) SystemInfo() SystemInfo {
	return SystemInfo{
		PageSize:              uint32(f.granularity),
		AllocationGranularity: uint32(f.granularity),
		MinAppAddress:         f.minAddr,
		MaxAppAddress:         f.maxAddr,
	}
}

// writeRaw seeds memory directly, bypassing WriteMemory's protection
// checks, for laying out test fixtures (pointer chains, scan targets)
// regardless of the region's declared protection.
func (f *fakeEnv) writeRaw(addr uintptr, data []byte) {
	for i, b := range data {
		f.mem[addr+uintptr(i)] = b
	}
}

func (f *fakeEnv) String() string {
	return fmt.Sprintf("fakeEnv(pid=%d, regions=%d)", f.pid, len(f.regions))
}
