package procmem

import (
	"fmt"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// defaultSearchWindow is the 0x70000000 (1.75 GiB) half-window spec.md
// §4.6 step 2 specifies, conservative headroom inside the ±2 GiB reach of a
// signed 32-bit displacement.
const defaultSearchWindow = 0x70000000

// defaultCaveSize is spec.md §3's default code-cave size.
const defaultCaveSize = 2048

// Config holds the tunables spec.md treats as constants (§4.6's search
// window, §3's default cave size) but which real deployments reasonably
// want to override, plus the access rights requested on Attach.
type Config struct {
	CaveSize     uintptr
	SearchWindow uintptr
	Rights       Rights
	Verbose      bool
}

// DefaultConfig returns spec.md's documented defaults, each overridable by
// environment variable via github.com/xyproto/env/v2 (the teacher's own
// dependency):
//
//	PROCMEM_CAVE_SIZE      default cave size in bytes (spec.md §3: 2048)
//	PROCMEM_SEARCH_WINDOW  placement-engine half-window in bytes (spec.md §4.6: 0x70000000)
//	PROCMEM_RIGHTS         comma-separated access rights requested on Attach (default "all")
//	PROCMEM_VERBOSE        enable debug logging
func DefaultConfig() Config {
	cfg := Config{
		CaveSize:     uintptr(env.Int("PROCMEM_CAVE_SIZE", defaultCaveSize)),
		SearchWindow: uintptr(env.Int("PROCMEM_SEARCH_WINDOW", defaultSearchWindow)),
		Rights:       parseRights(env.Str("PROCMEM_RIGHTS", "all")),
		Verbose:      env.Bool("PROCMEM_VERBOSE", false),
	}
	if cfg.Verbose {
		SetLogLevel("debug")
	}
	return cfg
}

// parseRights parses a comma-separated PROCMEM_RIGHTS value ("read",
// "write", "operation", "query", "all") into a Rights mask. An empty or
// unrecognised value falls back to RightsAllAccess.
func parseRights(s string) Rights {
	var r Rights
	for _, tok := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "read":
			r |= RightsVMRead
		case "write":
			r |= RightsVMWrite
		case "operation":
			r |= RightsVMOperation
		case "query":
			r |= RightsQueryInformation
		case "all":
			r |= RightsAllAccess
		}
	}
	if r == 0 {
		return RightsAllAccess
	}
	return r
}

// ScanSpec is one named signature to scan for, as declared in a ScanRecipe
// file. Pattern is the spec.md §6 byte-signature-string grammar
// ("48 8B 33 00 00"; token 00 = wildcard).
type ScanSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// CaveSpec is one named cave recipe: a donor symbolic address, a payload
// (hex string, spec.md §6 grammar), and bytesReplaced/jmpBack/size options
// mirroring create_code_cave's recognised options (spec.md §6 table).
type CaveSpec struct {
	Name           string `yaml:"name"`
	Donor          string `yaml:"donor"`
	Payload        string `yaml:"payload"`
	BytesReplaced  int    `yaml:"bytesReplaced"`
	JumpBack       *bool  `yaml:"jmpBack"`
	Size           int    `yaml:"size"`
}

// ScanRecipe groups named ScanSpecs and CaveSpecs so a CLI invocation can
// name a recipe entry instead of repeating a literal hex string every
// time. Restored per SPEC_FULL.md §4 ("Scan/cave recipes").
type ScanRecipe struct {
	Scans []ScanSpec `yaml:"scans"`
	Caves []CaveSpec `yaml:"caves"`
}

// LoadScanRecipe reads and parses a YAML recipe file via gopkg.in/yaml.v3.
func LoadScanRecipe(path string) (*ScanRecipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe %s: %w", path, err)
	}
	var r ScanRecipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse recipe %s: %w", path, err)
	}
	return &r, nil
}

// Scan looks up a named ScanSpec, returning false if absent.
func (r *ScanRecipe) Scan(name string) (ScanSpec, bool) {
	for _, s := range r.Scans {
		if s.Name == name {
			return s, true
		}
	}
	return ScanSpec{}, false
}

// Cave looks up a named CaveSpec, returning false if absent.
func (r *ScanRecipe) Cave(name string) (CaveSpec, bool) {
	for _, c := range r.Caves {
		if c.Name == name {
			return c, true
		}
	}
	return CaveSpec{}, false
}

// JumpBackOr returns the recipe's jmpBack option, defaulting to def when
// unset (spec.md §6: "jmpBack (default true)").
func (c CaveSpec) JumpBackOr(def bool) bool {
	if c.JumpBack == nil {
		return def
	}
	return *c.JumpBack
}
