package procmem

// nearJumpOpcode is the x86 E9 near-jump opcode (spec.md §4.7/§6).
const nearJumpOpcode = 0xE9

// nopOpcode pads any replaced bytes beyond the 5-byte jump (spec.md §4.7).
const nopOpcode = 0x90

// minReplacedBytes is spec.md §4.7's constraint: "replaced_bytes >= 5;
// otherwise behaviour is undefined (the caller is warned)".
const minReplacedBytes = 5

// writeDisp32 appends opcode then the 32-bit little-endian displacement
// disp, one byte at a time — the same explicit shift-and-mask style the
// teacher's x86 jump encoder (jmp.go) uses instead of encoding/binary.
func writeDisp32(buf []byte, opcode byte, disp int32) []byte {
	buf = append(buf, opcode)
	buf = append(buf,
		byte(disp&0xFF),
		byte((disp>>8)&0xFF),
		byte((disp>>16)&0xFF),
		byte((disp>>24)&0xFF),
	)
	return buf
}

// buildDonorPatch assembles the donor-site bytes (spec.md §4.7): a 0xE9
// near jump to cave, followed by 0x90 padding out to bytesReplaced bytes
// (length is 5 + max(0, bytesReplaced-5)).
func buildDonorPatch(donor, cave uintptr, bytesReplaced int) []byte {
	disp1 := int32(int64(cave) - int64(donor) - 5)
	patch := writeDisp32(nil, nearJumpOpcode, disp1)
	for len(patch) < bytesReplaced {
		patch = append(patch, nopOpcode)
	}
	return patch
}

// buildCaveBytes assembles the cave payload plus its trampoline jump back
// to donor+len(donorPatch) (spec.md §4.7). Called only when jumpBack is
// true and payload is non-empty — the source's no-payload overload
// computed this offset without ever writing it, dead code spec.md §9
// explicitly drops.
func buildCaveBytes(cave, donor uintptr, payload []byte, donorPatchLen int) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)
	returnTo := donor + uintptr(donorPatchLen)
	disp2 := int32(int64(returnTo) - int64(cave+uintptr(len(payload))) - 5)
	out = writeDisp32(out, nearJumpOpcode, disp2)
	return out
}

// CreateCodeCave installs a code cave near donor (spec.md §4.6/§4.7/§6):
// it allocates the cave via CreateCave, then writes cave bytes (payload +
// trampoline, when jumpBack is true and payload is non-empty) followed by
// the donor-site jump — cave first, donor second, per spec.md §4.7's
// safety invariant that the target must never observe a donor jump to a
// cave whose trampoline isn't written yet.
//
// bytesReplaced < 5 is a semantic anomaly (spec.md §7.3): the call still
// proceeds (behaviour is documented as undefined, not rejected) but is
// logged as a warning. size == 0 uses the Session's configured default
// cave size.
func (s *Session) CreateCodeCave(donor uintptr, payload []byte, bytesReplaced int, jumpBack bool, size uintptr) uintptr {
	if !s.Active() {
		return 0
	}
	if len(payload) == 0 {
		jumpBack = false
	}
	if bytesReplaced < minReplacedBytes {
		s.diag.Warn("CreateCodeCave", "bytesReplaced < 5: donor patch length is undefined by spec")
	}

	cave := s.CreateCave(donor, size)
	if cave.Address == 0 {
		return 0
	}

	donorPatch := buildDonorPatch(donor, cave.Address, bytesReplaced)

	if jumpBack {
		caveBytes := buildCaveBytes(cave.Address, donor, payload, len(donorPatch))
		if !s.WriteBytes(cave.Address, caveBytes) {
			s.diag.OSFailure("CreateCodeCave", "failed to write cave bytes")
			return 0
		}
	} else if len(payload) > 0 {
		if !s.WriteBytes(cave.Address, payload) {
			s.diag.OSFailure("CreateCodeCave", "failed to write cave payload")
			return 0
		}
	}

	if !s.WriteBytes(donor, donorPatch) {
		s.diag.OSFailure("CreateCodeCave", "failed to write donor patch")
		return 0
	}

	cave.Installed = true
	cave.Replaced = bytesReplaced
	s.log.WithField("donor", donor).WithField("cave", cave.Address).Info("code cave installed")
	return cave.Address
}

// CreateCodeCaveText is the spec.md §6 overload accepting a hex-string
// payload and a larger default size (4096 vs 2048) when size == 0.
func (s *Session) CreateCodeCaveText(donor uintptr, payloadHex string, bytesReplaced int, jumpBack bool, size uintptr) uintptr {
	payload, ok := ParseHexBytes(payloadHex)
	if !ok {
		s.diag.InvalidInput("CreateCodeCaveText", "malformed payload: "+payloadHex)
		return 0
	}
	if size == 0 {
		size = 4096
	}
	return s.CreateCodeCave(donor, payload, bytesReplaced, jumpBack, size)
}
