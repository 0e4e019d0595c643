package probe

import (
	"path/filepath"

	"llamalink/internal/common/fsutil"
	"llamalink/pkg/types"
)

const (
	SourceBundled = "bundled"
	SourceEnv     = "env"
)

// CUDAOptions names where to look for the GPU toolchain.
type CUDAOptions struct {
	// Requested mirrors the "try to use CUDA" switch; when false nothing is probed.
	Requested bool
	// BundledDir is the plugin-shipped accelerated directory.
	BundledDir string
	// Marker is a file whose presence in BundledDir proves the bundle is there.
	Marker string
	// EnvVar names the variable holding an installed toolkit root.
	EnvVar string
}

// CUDA probes the bundled directory first and then the toolkit variable.
// A set variable resolves to <root>/lib/x64 without further checks.
func CUDA(env Env, o CUDAOptions) types.CapabilityProbe {
	p := types.CapabilityProbe{Requested: o.Requested}
	if !o.Requested {
		return p
	}
	if o.BundledDir != "" && o.Marker != "" && fsutil.IsFile(filepath.Join(o.BundledDir, o.Marker)) {
		p.Found = true
		p.Dir = o.BundledDir
		p.Source = SourceBundled
		return p
	}
	if root, ok := Lookup(env, o.EnvVar); ok {
		p.Found = true
		p.Dir = filepath.Join(root, "lib", "x64")
		p.Source = SourceEnv
	}
	return p
}
