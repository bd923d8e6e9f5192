//go:build windows

package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	winio "github.com/Microsoft/go-winio"
	"github.com/sirupsen/logrus"
	"github.com/xyproto/procmem"
)

// DefaultPipeName returns the conventional pipe name for a session
// belonging to the current process, \\.\pipe\procmem-<pid>.
func DefaultPipeName() string {
	return fmt.Sprintf(`\\.\pipe\procmem-%d`, os.Getpid())
}

// Serve listens on pipeName and dispatches newline-delimited-JSON Requests
// against sess until the listener is closed or stop is closed. Only one
// connection is served at a time; a second client blocks in Accept until
// the first disconnects (spec.md's Non-goal: no concurrent mutation of one
// process from multiple handles — this restriction carries to the IPC
// front end too).
func Serve(pipeName string, sess *procmem.Session, stop <-chan struct{}) error {
	pc := &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		MessageMode:        false,
	}
	l, err := winio.ListenPipe(pipeName, pc)
	if err != nil {
		return fmt.Errorf("listen pipe %s: %w", pipeName, err)
	}
	defer l.Close()

	go func() {
		<-stop
		l.Close()
	}()

	entry := logrus.WithField("pipe", pipeName)
	entry.Info("ipc: listening")

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		serveConn(conn, sess, entry)
	}
}

func serveConn(conn net.Conn, sess *procmem.Session, entry *logrus.Entry) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(Response{Error: "malformed request: " + err.Error()})
			continue
		}
		resp := Dispatch(sess, req)
		if err := enc.Encode(resp); err != nil {
			entry.WithError(err).Warn("ipc: failed to write response")
			return
		}
	}
}
