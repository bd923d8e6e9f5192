package procmem

// Handle is an opaque reference to an open foreign-process handle. Its
// underlying representation is platform specific (a Windows HANDLE cast to
// uintptr on Windows); zero is always invalid.
type Handle uintptr

// Rights selects the access mask requested from open_process. Library
// callers normally want RightsAllAccess; narrower masks are exposed for
// callers that want least-privilege attaches.
type Rights uint32

const (
	RightsVMRead Rights = 1 << iota
	RightsVMWrite
	RightsVMOperation
	RightsQueryInformation
	RightsAllAccess
)

// Protect mirrors the Windows VirtualQueryEx/VirtualAllocEx protection
// constants relevant to this library; values match the Windows ABI so the
// windows-bridge implementation can pass them straight through.
type Protect uint32

const (
	ProtectNoAccess         Protect = 0x01
	ProtectReadOnly         Protect = 0x02
	ProtectReadWrite        Protect = 0x04
	ProtectWriteCopy        Protect = 0x08
	ProtectExecute          Protect = 0x10
	ProtectExecuteRead      Protect = 0x20
	ProtectExecuteReadWrite Protect = 0x40
	ProtectExecuteWriteCopy Protect = 0x80
)

// Readable reports whether p is one of the protections the corrected
// signature-scanner filter (spec.md §4.5) should include: RW, RO,
// EXECUTE_READ, EXECUTE_READWRITE.
func (p Protect) Readable() bool {
	switch p {
	case ProtectReadOnly, ProtectReadWrite, ProtectExecuteRead, ProtectExecuteReadWrite:
		return true
	default:
		return false
	}
}

// State is the region.state field of a memory region descriptor.
type State uint32

const (
	StateFree State = 1 << iota
	StateCommit
	StateReserve
)

// RegionType classifies the backing of a committed/reserved region.
type RegionType uint32

const (
	TypeUnknown RegionType = iota
	TypePrivate
	TypeMapped
	TypeImage
)

// Region mirrors the OS query_region result (spec.md §3 "Memory region
// descriptor").
type Region struct {
	BaseAddress       uintptr
	AllocationBase    uintptr
	RegionSize        uintptr
	State             State
	Protect           Protect
	AllocationProtect Protect
	Type              RegionType
}

// SystemInfo mirrors system_info() (spec.md §4.1): page size, allocation
// granularity, and the inclusive application address range.
type SystemInfo struct {
	PageSize          uint32
	AllocationGranularity uint32
	MinAppAddress     uintptr
	MaxAppAddress     uintptr
}

// osBridge is the abstract contract over the eight host primitives named in
// spec.md §4.1 (role labels, not API names). Every primitive returns a
// boolean/zero failure at the call site and never propagates as an error
// that the caller must unwrap — that's spec.md §7's propagation policy.
//
// Having this as an interface (rather than calling windows.* directly from
// every component) is what lets C2–C7 be unit tested without a real Windows
// target: tests substitute a fakeEnv that models an in-memory process.
type osBridge interface {
	OpenProcess(pid uint32, rights Rights) (Handle, bool)
	CloseHandle(h Handle) bool
	ReadMemory(h Handle, addr uintptr, n int) ([]byte, bool)
	WriteMemory(h Handle, addr uintptr, data []byte) bool
	QueryRegion(h Handle, addr uintptr) (Region, bool)
	AllocInProcess(h Handle, hint uintptr, size uintptr, protect Protect) uintptr
	FreeInProcess(h Handle, addr uintptr) bool
	SystemInfo() SystemInfo
}
