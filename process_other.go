//go:build !windows
// +build !windows

package procmem

type noProcessLister struct{}

func newProcessLister() processLister {
	return noProcessLister{}
}

func (noProcessLister) ListProcesses() ([]ProcessInfo, bool) { return nil, false }
func (noProcessLister) ListModules(pid uint32) ([]ModuleInfo, bool) { return nil, false }
