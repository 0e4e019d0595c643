package resolver

import (
	"path/filepath"

	"llamalink/internal/common/fsutil"
	"llamalink/internal/probe"
	"llamalink/pkg/types"
)

const (
	// cudaMarker proves the plugin ships the accelerated Win64 build.
	cudaMarker = "cuda.lib"

	llamaImportLib = "llama.lib"
	ggmlImportLib  = "ggml.lib"
	llamaDLL       = "llama.dll"
	ggmlDLL        = "ggml.dll"
)

// win64Files is the fixed set every Win64 library root must hold.
var win64Files = []string{llamaImportLib, ggmlImportLib, llamaDLL, ggmlDLL}

// cudaImportLibs are linked only with Options.LinkAcceleratorLibs.
var cudaImportLibs = []string{"cudart.lib", "cublas.lib", "cuda.lib"}

// resolveWin64 applies, in order: GPU probe, effective root selection
// (LLAMA_PATH, then bundled Cuda, then bundled Cpu), import libraries and
// unconditional DLL runtime copies.
func resolveWin64(r *Resolver, in input) (types.LinkPlan, error) {
	base := filepath.Join(in.libRoot, string(types.PlatformWin64))
	cudaDir := filepath.Join(base, "Cuda")
	cpuDir := filepath.Join(base, "Cpu")

	capability := probe.CUDA(in.env, probe.CUDAOptions{
		Requested:  r.opts.TryCUDA,
		BundledDir: cudaDir,
		Marker:     cudaMarker,
		EnvVar:     r.opts.CUDAPathEnv,
	})
	if capability.Found {
		zlog.Info().Str("platform", string(in.platform)).Str("cuda_dir", capability.Dir).Str("source", capability.Source).Msg("cuda toolchain found")
	}

	plan := newPlan(types.PlatformWin64)
	plan.Capability = capability

	root, source, err := r.win64Root(in, capability, cudaDir, cpuDir)
	if err != nil {
		return types.LinkPlan{}, err
	}
	plan.LibraryRoot = root.Dir
	plan.RootSource = source

	plan.AddLink(root.Path(llamaImportLib), types.LinkStatic)
	plan.AddLink(root.Path(ggmlImportLib), types.LinkStatic)

	if r.opts.LinkAcceleratorLibs && capability.Found {
		c := fsutil.CheckDir(capability.Dir, cudaImportLibs...)
		if !c.Valid() {
			return types.LinkPlan{}, checkError(types.PlatformWin64, capabilitySource(r, capability), c)
		}
		for _, name := range cudaImportLibs {
			plan.AddLink(c.Path(name), types.LinkStatic)
		}
	}

	for _, name := range []string{llamaDLL, ggmlDLL} {
		plan.AddRuntimeCopy(root.Path(name), r.deployed(name))
		if r.opts.DelayLoad {
			plan.AddDelayLoad(name)
		}
	}

	zlog.Info().
		Str("platform", string(in.platform)).
		Str("library_root", plan.LibraryRoot).
		Str("root_source", plan.RootSource).
		Bool("cuda_requested", capability.Requested).
		Bool("cuda_found", capability.Found).
		Msg("building using llama.lib")
	return plan, nil
}

// win64Root picks the effective library root. An environment override is
// taken verbatim and never falls back. A Cuda root chosen only because the
// toolkit variable is set falls back to the Cpu root when the plugin does
// not ship the Cuda build.
func (r *Resolver) win64Root(in input, capability types.CapabilityProbe, cudaDir, cpuDir string) (fsutil.DirCheck, string, error) {
	if p, ok := probe.Lookup(in.env, r.opts.LlamaPathEnv); ok {
		if capability.Found {
			zlog.Debug().Str("override", p).Str("cuda_dir", capability.Dir).Msg("library root override wins over cuda capability")
		}
		c := fsutil.CheckDir(p, win64Files...)
		if !c.Valid() {
			return c, "", checkError(types.PlatformWin64, r.opts.LlamaPathEnv, c)
		}
		return c, RootEnv, nil
	}

	if capability.Found {
		c := fsutil.CheckDir(cudaDir, win64Files...)
		if c.Valid() {
			return c, RootBundledGPU, nil
		}
		if capability.Source == probe.SourceBundled {
			return c, "", checkError(types.PlatformWin64, RootBundledGPU, c)
		}
		zlog.Warn().Str("cuda_dir", cudaDir).Str("reason", c.Reason()).Msg("bundled cuda build unavailable, using cpu build")
	}

	c := fsutil.CheckDir(cpuDir, win64Files...)
	if !c.Valid() {
		return c, "", checkError(types.PlatformWin64, RootBundledCPU, c)
	}
	return c, RootBundledCPU, nil
}

func capabilitySource(r *Resolver, c types.CapabilityProbe) string {
	if c.Source == probe.SourceEnv {
		return r.opts.CUDAPathEnv
	}
	return RootBundledGPU
}
