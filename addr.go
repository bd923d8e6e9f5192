package procmem

import (
	"strconv"
	"strings"
)

// ParseHexBytes parses a byte-signature string (spec.md §4.2 / §6): tokens
// of 1-2 hex digits separated by single ASCII spaces, e.g. "A1 C3 08".
// Malformed input fails the whole parse.
func ParseHexBytes(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	tokens := strings.Split(s, " ")
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, false
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, false
		}
		out = append(out, byte(v))
	}
	return out, true
}

// ParseOffsets parses an offset string (spec.md §4.2 / §6): same
// tokenisation as ParseHexBytes, each token a signed 64-bit integer in
// base 16, e.g. "4 C3D 1F".
func ParseOffsets(s string) ([]int64, bool) {
	if s == "" {
		return nil, true
	}
	tokens := strings.Split(s, " ")
	out := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, false
		}
		v, err := strconv.ParseInt(tok, 16, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// ResolveSymbolic resolves "<module_name>" or "<module_name>+<hex_offset>"
// against the Session's module snapshot (spec.md §4.2). Module matching is
// case-insensitive; spaces are stripped before the '+' split (spec.md §9:
// the source discarded the result of its String.Replace call, a bug this
// implementation fixes). Empty input, or a module that isn't loaded,
// returns zero.
func (s *Session) ResolveSymbolic(addrText string) uintptr {
	text := strings.ReplaceAll(addrText, " ", "")
	if text == "" {
		s.diag.InvalidInput("ResolveSymbolic", "empty address text")
		return 0
	}

	var modName string
	var offsetText string
	if idx := strings.Index(text, "+"); idx >= 0 {
		modName = text[:idx]
		offsetText = text[idx+1:]
	} else {
		modName = text
	}
	if modName == "" {
		s.diag.InvalidInput("ResolveSymbolic", "empty module name")
		return 0
	}

	var offset int64
	if offsetText != "" {
		v, err := strconv.ParseInt(offsetText, 16, 64)
		if err != nil {
			s.diag.InvalidInput("ResolveSymbolic", "malformed offset: "+offsetText)
			return 0
		}
		offset = v
	}

	target := strings.ToLower(modName)
	for _, m := range s.modules {
		if strings.ToLower(m.Name) == target {
			return uintptr(int64(m.Base) + offset)
		}
	}
	s.diag.InvalidInput("ResolveSymbolic", "module not loaded: "+modName)
	return 0
}
