//go:build windows
// +build windows

package procmem

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type toolhelpLister struct{}

func newProcessLister() processLister {
	return toolhelpLister{}
}

func (toolhelpLister) ListProcesses() ([]ProcessInfo, bool) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, false
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var out []ProcessInfo
	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, false
	}
	for {
		out = append(out, ProcessInfo{
			PID:     entry.ProcessID,
			ExeFile: syscall.UTF16ToString(entry.ExeFile[:]),
		})
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return out, true
}

func (toolhelpLister) ListModules(pid uint32) ([]ModuleInfo, bool) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, pid)
	if err != nil {
		return nil, false
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var out []ModuleInfo
	if err := windows.Module32First(snap, &entry); err != nil {
		return nil, false
	}
	for {
		out = append(out, ModuleInfo{
			Name: syscall.UTF16ToString(entry.Module[:]),
			Base: uintptr(entry.ModBaseAddr),
			Size: entry.ModBaseSize,
		})
		if err := windows.Module32Next(snap, &entry); err != nil {
			break
		}
	}
	return out, true
}
