// Package ipc exposes a Session to a separate process over a named pipe
// (SPEC_FULL.md §4 "ipc package"): a minimal newline-delimited-JSON
// request/response protocol, so a GUI or CLI shell that isn't itself
// written in Go can still drive attach/read/write/scan/cave operations.
package ipc

import (
	"strconv"
	"strings"

	"github.com/xyproto/procmem"
)

// Request is one newline-delimited-JSON request frame. Args are
// interpreted per Op; unused fields are left zero.
type Request struct {
	ID      int    `json:"id"`
	Op      string `json:"op"`
	Name    string `json:"name,omitempty"`    // attach
	Addr    string `json:"addr,omitempty"`    // read/write/cave/free-cave (hex or symbolic)
	Offsets string `json:"offsets,omitempty"` // read/write pointer-chain
	Kind    string `json:"kind,omitempty"`    // read/write: int32|int64|float32|float64|bytes
	Value   string `json:"value,omitempty"`   // write: decimal or hex-bytes per Kind
	Length  int    `json:"length,omitempty"`  // read bytes: byte count
	Pattern string `json:"pattern,omitempty"` // scan: hex signature
	Start   string `json:"start,omitempty"`   // scan: hex start address

	Payload       string `json:"payload,omitempty"`       // cave: hex payload
	BytesReplaced int    `json:"bytesReplaced,omitempty"` // cave
	JumpBack      bool   `json:"jumpBack,omitempty"`      // cave
	Size          int    `json:"size,omitempty"`          // cave
}

// Response is one newline-delimited-JSON response frame, echoing the
// request's ID. Ok mirrors spec.md §7's bool/zero failure convention —
// the transport never returns a Go error for a failed memory operation,
// only for malformed requests or a broken pipe.
type Response struct {
	ID      int      `json:"id"`
	Ok      bool     `json:"ok"`
	Result  string   `json:"result,omitempty"`
	Matches []string `json:"matches,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Dispatch executes one Request against sess and returns the Response.
// It never panics. An address that does not resolve, a scan pattern that
// does not parse, or an unknown op produces Ok:false with Error set; a
// write or cave request that fails (including for a malformed value or
// payload) produces Ok:false with Error empty.
func Dispatch(sess *procmem.Session, req Request) Response {
	resp := Response{ID: req.ID}

	switch req.Op {
	case "attach":
		resp.Ok = sess.Attach(req.Name)
	case "close":
		resp.Ok = sess.Close()
	case "read":
		addr := resolveAddr(sess, req.Addr, req.Offsets)
		if addr == 0 {
			resp.Error = "could not resolve address"
			return resp
		}
		resp.Ok = true
		switch req.Kind {
		case "int64":
			resp.Result = strconv.FormatInt(sess.ReadInt64(addr), 10)
		case "float32":
			resp.Result = strconv.FormatFloat(float64(sess.ReadFloat32(addr)), 'g', -1, 32)
		case "float64":
			resp.Result = strconv.FormatFloat(sess.ReadFloat64(addr), 'g', -1, 64)
		case "bytes":
			resp.Result = hexEncode(sess.ReadBytes(addr, req.Length))
		default:
			resp.Result = strconv.FormatInt(int64(sess.ReadInt32(addr)), 10)
		}
	case "write":
		addr := resolveAddr(sess, req.Addr, req.Offsets)
		if addr == 0 {
			resp.Error = "could not resolve address"
			return resp
		}
		resp.Ok = writeTyped(sess, addr, req.Kind, req.Value)
	case "scan":
		if _, ok := procmem.ParseHexBytes(req.Pattern); !ok {
			resp.Error = "malformed pattern"
			return resp
		}
		start := uintptr(0)
		if req.Start != "" {
			start = sess.ResolveText(req.Start, "")
		}
		matches := sess.ScanMemoryText(req.Pattern, start)
		resp.Ok = true
		resp.Matches = make([]string, len(matches))
		for i, m := range matches {
			resp.Matches[i] = "0x" + strconv.FormatUint(uint64(m), 16)
		}
	case "cave":
		addr := resolveAddr(sess, req.Addr, "")
		if addr == 0 {
			resp.Error = "could not resolve donor address"
			return resp
		}
		caveAddr := sess.CreateCodeCaveText(addr, req.Payload, req.BytesReplaced, req.JumpBack, uintptr(req.Size))
		resp.Ok = caveAddr != 0
		if resp.Ok {
			resp.Result = "0x" + strconv.FormatUint(uint64(caveAddr), 16)
		}
	case "free-cave":
		addr := resolveAddr(sess, req.Addr, "")
		resp.Ok = addr != 0 && sess.FreeCave(addr)
	default:
		resp.Error = "unknown op: " + req.Op
	}
	return resp
}

func resolveAddr(sess *procmem.Session, addr, offsets string) uintptr {
	if offsets != "" {
		return sess.ResolveText(addr, offsets)
	}
	return sess.ResolveText(addr, "")
}

func writeTyped(sess *procmem.Session, addr uintptr, kind, value string) bool {
	switch kind {
	case "int64":
		v, err := strconv.ParseInt(value, 10, 64)
		return err == nil && sess.WriteInt64(addr, v)
	case "float32":
		v, err := strconv.ParseFloat(value, 32)
		return err == nil && sess.WriteFloat32(addr, float32(v))
	case "float64":
		v, err := strconv.ParseFloat(value, 64)
		return err == nil && sess.WriteFloat64(addr, v)
	case "bytes":
		b, ok := procmem.ParseHexBytes(strings.TrimSpace(value))
		return ok && sess.WriteBytes(addr, b)
	default:
		v, err := strconv.ParseInt(value, 10, 32)
		return err == nil && sess.WriteInt32(addr, int32(v))
	}
}

func hexEncode(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(uint64(c), 16))
	}
	return sb.String()
}
