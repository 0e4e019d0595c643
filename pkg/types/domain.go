package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TargetPlatform identifies the platform a link plan is resolved for.
type TargetPlatform string

const (
	PlatformLinux   TargetPlatform = "Linux"
	PlatformWin64   TargetPlatform = "Win64"
	PlatformMac     TargetPlatform = "Mac"
	PlatformAndroid TargetPlatform = "Android"
)

// Platforms lists every supported platform in a stable order.
func Platforms() []TargetPlatform {
	return []TargetPlatform{PlatformLinux, PlatformWin64, PlatformMac, PlatformAndroid}
}

// ParsePlatform accepts the canonical names case-insensitively, plus the
// matching GOOS names (linux, windows, darwin, android).
func ParsePlatform(s string) (TargetPlatform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux":
		return PlatformLinux, true
	case "win64", "windows":
		return PlatformWin64, true
	case "mac", "darwin", "macos":
		return PlatformMac, true
	case "android":
		return PlatformAndroid, true
	}
	return "", false
}

// LinkKind describes how a library takes part in the link.
type LinkKind string

const (
	// LinkStatic is an archive or import library consumed by the linker.
	LinkStatic LinkKind = "static"
	// LinkShared is a shared object linked directly and resolved at process start.
	LinkShared LinkKind = "shared"
	// LinkSharedDelayLoaded is a shared library resolved at first use.
	LinkSharedDelayLoaded LinkKind = "shared-delay-loaded"
)

// LinkEntry is a single library handed to the host linker.
// Path exists on disk at the time the plan is built.
type LinkEntry struct {
	// example: /plugins/Llama/ThirdParty/LlamaCpp/Win64/Cpu/llama.lib
	Path string   `json:"path" yaml:"path" toml:"path" example:"/plugins/Llama/ThirdParty/LlamaCpp/Win64/Cpu/llama.lib"`
	Kind LinkKind `json:"kind" yaml:"kind" toml:"kind" example:"static"`
}

// RuntimeCopyEntry is a file staged next to the produced binary.
type RuntimeCopyEntry struct {
	SourcePath string `json:"source_path" yaml:"source_path" toml:"source_path"`
	// DeployedName is relative to the host's binary output directory token.
	// example: $(BinaryOutputDir)/llama.dll
	DeployedName string `json:"deployed_name" yaml:"deployed_name" toml:"deployed_name" example:"$(BinaryOutputDir)/llama.dll"`
}

// CapabilityProbe is the outcome of looking for the optional GPU toolchain.
type CapabilityProbe struct {
	Requested bool   `json:"requested" yaml:"requested" toml:"requested"`
	Found     bool   `json:"found" yaml:"found" toml:"found"`
	Dir       string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	// Source is "bundled", "env" or empty when nothing was found.
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
}

// LinkPlan is the ordered result of one resolution.
type LinkPlan struct {
	Platform TargetPlatform `json:"platform" yaml:"platform" toml:"platform"`
	// LibraryRoot is the effective root of the primary link artifacts.
	LibraryRoot string `json:"library_root" yaml:"library_root" toml:"library_root"`
	// RootSource tells where LibraryRoot came from: "env", "bundled-gpu", "bundled-cpu" or "bundled".
	RootSource    string             `json:"root_source" yaml:"root_source" toml:"root_source"`
	Capability    CapabilityProbe    `json:"capability" yaml:"capability" toml:"capability"`
	Links         []LinkEntry        `json:"links" yaml:"links" toml:"links"`
	DelayLoad     []string           `json:"delay_load,omitempty" yaml:"delay_load,omitempty" toml:"delay_load,omitempty"`
	RuntimeCopies []RuntimeCopyEntry `json:"runtime_copies" yaml:"runtime_copies" toml:"runtime_copies"`
	// IncludeDirs are the header directories a host compiles against.
	// example: ["/plugins/Llama/Includes"]
	IncludeDirs []string `json:"include_dirs,omitempty" yaml:"include_dirs,omitempty" toml:"include_dirs,omitempty"`
}

// AddLink appends a link entry unless the same path is already present.
func (p *LinkPlan) AddLink(path string, kind LinkKind) {
	for _, l := range p.Links {
		if l.Path == path {
			return
		}
	}
	p.Links = append(p.Links, LinkEntry{Path: path, Kind: kind})
}

// AddRuntimeCopy appends a runtime copy unless the deployed name is already taken.
func (p *LinkPlan) AddRuntimeCopy(src, deployed string) {
	for _, c := range p.RuntimeCopies {
		if c.DeployedName == deployed {
			return
		}
	}
	p.RuntimeCopies = append(p.RuntimeCopies, RuntimeCopyEntry{SourcePath: src, DeployedName: deployed})
}

// AddDelayLoad records a library name for delay-load registration.
func (p *LinkPlan) AddDelayLoad(name string) {
	for _, n := range p.DelayLoad {
		if n == name {
			return
		}
	}
	p.DelayLoad = append(p.DelayLoad, name)
}

// AddIncludeDir records a header directory once.
func (p *LinkPlan) AddIncludeDir(dir string) {
	for _, d := range p.IncludeDirs {
		if d == dir {
			return
		}
	}
	p.IncludeDirs = append(p.IncludeDirs, dir)
}

// Fingerprint hashes the canonical JSON form of the plan. Identical inputs
// produce identical fingerprints.
func (p LinkPlan) Fingerprint() string {
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}
