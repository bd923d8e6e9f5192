//go:build windows
// +build windows

package procmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsOS implements osBridge over the real Win32 API. OpenProcess,
// CloseHandle, and GetSystemInfo are wrapped by golang.org/x/sys/windows
// directly; ReadProcessMemory, WriteProcessMemory, VirtualQueryEx,
// VirtualAllocEx, and VirtualFreeEx operate on a *foreign* process and are
// not exposed by that package, so they're called the way the ecosystem
// calls any kernel32 export x/sys/windows doesn't wrap: a lazy-loaded DLL
// proc invoked through syscall.
type windowsOS struct {
	kernel32           *windows.LazyDLL
	procReadMemory     *windows.LazyProc
	procWriteMemory    *windows.LazyProc
	procVirtualQueryEx *windows.LazyProc
	procVirtualAllocEx *windows.LazyProc
	procVirtualFreeEx  *windows.LazyProc
}

func newOSBridge() osBridge {
	k32 := windows.NewLazySystemDLL("kernel32.dll")
	return &windowsOS{
		kernel32:           k32,
		procReadMemory:     k32.NewProc("ReadProcessMemory"),
		procWriteMemory:    k32.NewProc("WriteProcessMemory"),
		procVirtualQueryEx: k32.NewProc("VirtualQueryEx"),
		procVirtualAllocEx: k32.NewProc("VirtualAllocEx"),
		procVirtualFreeEx:  k32.NewProc("VirtualFreeEx"),
	}
}

func rightsToAccessMask(r Rights) uint32 {
	if r&RightsAllAccess != 0 {
		return windows.PROCESS_ALL_ACCESS
	}
	var mask uint32
	if r&RightsVMRead != 0 {
		mask |= windows.PROCESS_VM_READ
	}
	if r&RightsVMWrite != 0 {
		mask |= windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION
	}
	if r&RightsVMOperation != 0 {
		mask |= windows.PROCESS_VM_OPERATION
	}
	if r&RightsQueryInformation != 0 {
		mask |= windows.PROCESS_QUERY_INFORMATION
	}
	if mask == 0 {
		mask = windows.PROCESS_ALL_ACCESS
	}
	return mask
}

func (w *windowsOS) OpenProcess(pid uint32, rights Rights) (Handle, bool) {
	h, err := windows.OpenProcess(rightsToAccessMask(rights), false, pid)
	if err != nil {
		return 0, false
	}
	return Handle(h), true
}

func (w *windowsOS) CloseHandle(h Handle) bool {
	if h == 0 {
		return false
	}
	return windows.CloseHandle(windows.Handle(h)) == nil
}

func (w *windowsOS) ReadMemory(h Handle, addr uintptr, n int) ([]byte, bool) {
	if h == 0 || n <= 0 {
		return nil, false
	}
	buf := make([]byte, n)
	var nRead uintptr
	ret, _, _ := w.procReadMemory.Call(
		uintptr(h),
		addr,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(n),
		uintptr(unsafe.Pointer(&nRead)),
	)
	if ret == 0 {
		return nil, false
	}
	return buf[:nRead], true
}

func (w *windowsOS) WriteMemory(h Handle, addr uintptr, data []byte) bool {
	if h == 0 || len(data) == 0 {
		return false
	}
	var nWritten uintptr
	ret, _, _ := w.procWriteMemory.Call(
		uintptr(h),
		addr,
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(&nWritten)),
	)
	return ret != 0 && int(nWritten) == len(data)
}

// win32MemoryBasicInformation mirrors MEMORY_BASIC_INFORMATION on amd64/arm64.
type win32MemoryBasicInformation struct {
	BaseAddress       uintptr
	AllocationBase    uintptr
	AllocationProtect uint32
	_                 uint32 // PartitionId, alignment padding on 64-bit
	RegionSize        uintptr
	State             uint32
	Protect           uint32
	Type              uint32
}

func (w *windowsOS) QueryRegion(h Handle, addr uintptr) (Region, bool) {
	if h == 0 {
		return Region{}, false
	}
	var mbi win32MemoryBasicInformation
	ret, _, _ := w.procVirtualQueryEx.Call(
		uintptr(h),
		addr,
		uintptr(unsafe.Pointer(&mbi)),
		unsafe.Sizeof(mbi),
	)
	if ret == 0 {
		return Region{}, false
	}
	return Region{
		BaseAddress:       mbi.BaseAddress,
		AllocationBase:    mbi.AllocationBase,
		RegionSize:        mbi.RegionSize,
		State:             toState(mbi.State),
		Protect:           Protect(mbi.Protect),
		AllocationProtect: Protect(mbi.AllocationProtect),
		Type:              toRegionType(mbi.Type),
	}, true
}

func toState(win32 uint32) State {
	switch win32 {
	case 0x10000: // MEM_FREE
		return StateFree
	case 0x1000: // MEM_COMMIT
		return StateCommit
	case 0x2000: // MEM_RESERVE
		return StateReserve
	default:
		return StateFree
	}
}

func toRegionType(win32 uint32) RegionType {
	switch win32 {
	case 0x20000: // MEM_PRIVATE
		return TypePrivate
	case 0x40000: // MEM_MAPPED
		return TypeMapped
	case 0x1000000: // MEM_IMAGE
		return TypeImage
	default:
		return TypeUnknown
	}
}

func (w *windowsOS) AllocInProcess(h Handle, hint uintptr, size uintptr, protect Protect) uintptr {
	if h == 0 || size == 0 {
		return 0
	}
	const memCommit = 0x1000
	const memReserve = 0x2000
	addr, _, _ := w.procVirtualAllocEx.Call(
		uintptr(h),
		hint,
		size,
		uintptr(memCommit|memReserve),
		uintptr(protect),
	)
	return addr
}

func (w *windowsOS) FreeInProcess(h Handle, addr uintptr) bool {
	if h == 0 || addr == 0 {
		return false
	}
	const memRelease = 0x8000
	ret, _, _ := w.procVirtualFreeEx.Call(uintptr(h), addr, 0, uintptr(memRelease))
	return ret != 0
}

func (w *windowsOS) SystemInfo() SystemInfo {
	var si windows.Systeminfo
	windows.GetSystemInfo(&si)
	return SystemInfo{
		PageSize:              si.PageSize,
		AllocationGranularity: si.AllocationGranularity,
		MinAppAddress:         uintptr(si.MinimumApplicationAddress),
		MaxAppAddress:         uintptr(si.MaximumApplicationAddress),
	}
}
