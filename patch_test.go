package procmem

import "testing"

func TestBuildDonorPatchEncoding(t *testing.T) {
	donor := uintptr(0x10000)
	cave := uintptr(0x20000)
	patch := buildDonorPatch(donor, cave, 5)

	if len(patch) != 5 {
		t.Fatalf("len(patch) = %d, want 5", len(patch))
	}
	if patch[0] != nearJumpOpcode {
		t.Fatalf("patch[0] = %#x, want E9", patch[0])
	}

	wantDisp := int32(int64(cave) - int64(donor) - 5)
	gotDisp := int32(patch[1]) | int32(patch[2])<<8 | int32(patch[3])<<16 | int32(patch[4])<<24
	if gotDisp != wantDisp {
		t.Fatalf("displacement = %#x, want %#x", gotDisp, wantDisp)
	}
}

func TestBuildDonorPatchPadsWithNops(t *testing.T) {
	patch := buildDonorPatch(0x10000, 0x20000, 8)
	if len(patch) != 8 {
		t.Fatalf("len(patch) = %d, want 8", len(patch))
	}
	for i := 5; i < 8; i++ {
		if patch[i] != nopOpcode {
			t.Fatalf("patch[%d] = %#x, want NOP (90)", i, patch[i])
		}
	}
}

func TestBuildCaveBytesTrampoline(t *testing.T) {
	cave := uintptr(0x20000)
	donor := uintptr(0x10000)
	payload := []byte{0x90, 0x90}
	donorPatchLen := 5

	out := buildCaveBytes(cave, donor, payload, donorPatchLen)
	if len(out) != len(payload)+5 {
		t.Fatalf("len(out) = %d, want %d", len(out), len(payload)+5)
	}
	if out[0] != payload[0] || out[1] != payload[1] {
		t.Fatal("payload bytes not preserved at start of cave bytes")
	}
	if out[2] != nearJumpOpcode {
		t.Fatalf("trampoline opcode = %#x, want E9", out[2])
	}

	returnTo := donor + uintptr(donorPatchLen)
	wantDisp := int32(int64(returnTo) - int64(cave+uintptr(len(payload))) - 5)
	gotDisp := int32(out[3]) | int32(out[4])<<8 | int32(out[5])<<16 | int32(out[6])<<24
	if gotDisp != wantDisp {
		t.Fatalf("trampoline displacement = %#x, want %#x", gotDisp, wantDisp)
	}
}

// TestCreateCodeCaveWritesCaveBeforeDonor verifies the installation order
// invariant: by the time the donor jump lands, the cave trampoline must
// already be in place. We check this indirectly by confirming both sides
// of the patch after CreateCodeCave returns.
func TestCreateCodeCaveWritesCaveBeforeDonor(t *testing.T) {
	s, env := newTestSession(t)
	donor := uintptr(0x10020)
	payload := []byte{0xCC}

	caveAddr := s.CreateCodeCave(donor, payload, 5, true, 0x100)
	if caveAddr == 0 {
		t.Fatal("expected a non-zero cave address")
	}

	donorBytes := s.ReadBytes(donor, 5)
	if len(donorBytes) != 5 || donorBytes[0] != nearJumpOpcode {
		t.Fatalf("donor patch missing/short: %v", donorBytes)
	}

	caveBytes := s.ReadBytes(caveAddr, len(payload)+5)
	if len(caveBytes) != len(payload)+5 || caveBytes[0] != payload[0] {
		t.Fatalf("cave payload missing/short: %v", caveBytes)
	}
	if caveBytes[1] != nearJumpOpcode {
		t.Fatalf("cave trampoline missing: %v", caveBytes)
	}

	for _, c := range s.Caves() {
		if c.Address == caveAddr && !c.Installed {
			t.Fatal("expected cave.Installed to be true")
		}
	}
	_ = env
}

func TestCreateCodeCaveNoJumpBackWhenPayloadEmpty(t *testing.T) {
	s, _ := newTestSession(t)
	donor := uintptr(0x10020)

	caveAddr := s.CreateCodeCave(donor, nil, 5, true, 0x100)
	if caveAddr == 0 {
		t.Fatal("expected a non-zero cave address even with empty payload")
	}
	donorBytes := s.ReadBytes(donor, 5)
	if len(donorBytes) != 5 || donorBytes[0] != nearJumpOpcode {
		t.Fatalf("donor patch missing/short: %v", donorBytes)
	}
}

func TestCreateCodeCaveTextHexPayload(t *testing.T) {
	s, _ := newTestSession(t)
	donor := uintptr(0x10020)

	caveAddr := s.CreateCodeCaveText(donor, "CC 90", 5, false, 0x100)
	if caveAddr == 0 {
		t.Fatal("expected a non-zero cave address")
	}
	caveBytes := s.ReadBytes(caveAddr, 2)
	if len(caveBytes) != 2 || caveBytes[0] != 0xCC || caveBytes[1] != 0x90 {
		t.Fatalf("cave bytes = %v, want [CC 90]", caveBytes)
	}
}

func TestCreateCodeCaveTextMalformedPayloadFails(t *testing.T) {
	s, _ := newTestSession(t)
	if addr := s.CreateCodeCaveText(0x10020, "ZZ", 5, false, 0x100); addr != 0 {
		t.Fatalf("expected 0 for malformed payload, got %#x", addr)
	}
}
