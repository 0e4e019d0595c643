package resolver

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"llamalink/internal/common/fsutil"
	"llamalink/internal/probe"
	"llamalink/pkg/types"
)

// Package defaults.
const (
	DefaultLlamaPathEnv    = "LLAMA_PATH"
	DefaultCUDAPathEnv     = "CUDA_PATH"
	DefaultBinaryOutputDir = "$(BinaryOutputDir)"
)

// Root sources recorded on LinkPlan.RootSource.
const (
	RootEnv        = "env"
	RootBundledGPU = "bundled-gpu"
	RootBundledCPU = "bundled-cpu"
	RootBundled    = "bundled"
	RootIncludes   = "includes"
)

// includeDirName is the plugin-relative header directory shared by every platform.
const includeDirName = "Includes"

// Options tune the Win64 algorithm and how runtime copies are named.
// Empty strings are replaced by the package defaults in New.
type Options struct {
	// TryCUDA enables the GPU capability probe on Win64.
	TryCUDA bool
	// DelayLoad lists the Win64 DLLs for delay-load registration.
	// Runtime copies are emitted either way.
	DelayLoad bool
	// LinkAcceleratorLibs links the CUDA import libraries when the probe
	// finds a toolchain. Off means detect-only.
	LinkAcceleratorLibs bool

	LlamaPathEnv    string
	CUDAPathEnv     string
	BinaryOutputDir string

	// Recorder observes every outcome. Nil records nothing.
	Recorder Recorder
}

// Recorder receives the outcome of each resolution. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Record(platform types.TargetPlatform, plan types.LinkPlan, err error)
}


// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TryCUDA:         true,
		LlamaPathEnv:    DefaultLlamaPathEnv,
		CUDAPathEnv:     DefaultCUDAPathEnv,
		BinaryOutputDir: DefaultBinaryOutputDir,
	}
}

// zlog receives resolution diagnostics. Silent until SetLogger is called.
var zlog = zerolog.Nop()

// SetLogger installs the structured logger used for resolution diagnostics.
func SetLogger(l zerolog.Logger) { zlog = l }

// Resolver turns platform and environment facts into a LinkPlan.
// It holds no state between calls and is safe for concurrent use.
type Resolver struct {
	opts Options
}

// New builds a Resolver, filling unset names with defaults.
func New(o Options) *Resolver {
	if o.LlamaPathEnv == "" {
		o.LlamaPathEnv = DefaultLlamaPathEnv
	}
	if o.CUDAPathEnv == "" {
		o.CUDAPathEnv = DefaultCUDAPathEnv
	}
	if o.BinaryOutputDir == "" {
		o.BinaryOutputDir = DefaultBinaryOutputDir
	}
	return &Resolver{opts: o}
}

// Options returns the effective options.
func (r *Resolver) Options() Options { return r.opts }

// input is everything a platform rule may consult.
type input struct {
	platform types.TargetPlatform
	libRoot  string
	dirRoot  string
	env      probe.Env
}

type rule func(r *Resolver, in input) (types.LinkPlan, error)

// rules is the platform dispatch table. A platform missing here is
// unsupported; there is no fallthrough.
var rules = map[types.TargetPlatform]rule{
	types.PlatformLinux:   resolveLinux,
	types.PlatformWin64:   resolveWin64,
	types.PlatformMac:     resolveMac,
	types.PlatformAndroid: resolveAndroid,
}

// Supported reports whether a platform has a rule.
func Supported(p types.TargetPlatform) bool {
	_, ok := rules[p]
	return ok
}

// Resolve builds the plan for one platform. pluginLibRoot is the plugin's
// ThirdParty library directory; pluginDirRoot is the plugin directory itself.
// A nil env is treated as an empty environment. Nothing outside the returned
// values changes unless Options.Recorder is set.
func (r *Resolver) Resolve(platform types.TargetPlatform, pluginLibRoot, pluginDirRoot string, env probe.Env) (types.LinkPlan, error) {
	plan, err := r.resolve(platform, pluginLibRoot, pluginDirRoot, env)
	if r.opts.Recorder != nil {
		r.opts.Recorder.Record(platform, plan, err)
	}
	return plan, err
}

func (r *Resolver) resolve(platform types.TargetPlatform, pluginLibRoot, pluginDirRoot string, env probe.Env) (types.LinkPlan, error) {
	fn, ok := rules[platform]
	if !ok {
		return types.LinkPlan{}, unsupportedPlatform(platform)
	}
	if env == nil {
		env = probe.Map{}
	}
	plan, err := fn(r, input{platform: platform, libRoot: pluginLibRoot, dirRoot: pluginDirRoot, env: env})
	if err != nil {
		zlog.Error().Str("platform", string(platform)).Err(err).Msg("link plan resolution failed")
		return types.LinkPlan{}, err
	}
	inc := fsutil.CheckDir(filepath.Join(pluginDirRoot, includeDirName))
	if !inc.Valid() {
		err := checkError(platform, RootIncludes, inc)
		zlog.Error().Str("platform", string(platform)).Err(err).Msg("link plan resolution failed")
		return types.LinkPlan{}, err
	}
	plan.AddIncludeDir(inc.Dir)
	return plan, nil
}

// Resolve is a shorthand for New(DefaultOptions()).Resolve.
func Resolve(platform types.TargetPlatform, pluginLibRoot, pluginDirRoot string, env probe.Env) (types.LinkPlan, error) {
	return New(DefaultOptions()).Resolve(platform, pluginLibRoot, pluginDirRoot, env)
}

// Result pairs a platform with its plan or error.
type Result struct {
	Platform types.TargetPlatform
	Plan     types.LinkPlan
	Err      error
}

// ResolveAll resolves each platform independently. Results keep input order.
func (r *Resolver) ResolveAll(platforms []types.TargetPlatform, pluginLibRoot, pluginDirRoot string, env probe.Env) []Result {
	return iter.Map(platforms, func(p *types.TargetPlatform) Result {
		plan, err := r.Resolve(*p, pluginLibRoot, pluginDirRoot, env)
		return Result{Platform: *p, Plan: plan, Err: err}
	})
}

func newPlan(p types.TargetPlatform) types.LinkPlan {
	return types.LinkPlan{
		Platform:      p,
		Links:         []types.LinkEntry{},
		RuntimeCopies: []types.RuntimeCopyEntry{},
	}
}

func (r *Resolver) deployed(name string) string {
	return r.opts.BinaryOutputDir + "/" + name
}
