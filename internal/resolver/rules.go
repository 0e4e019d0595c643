package resolver

import (
	"path/filepath"

	"llamalink/internal/common/fsutil"
	"llamalink/pkg/types"
)

// Fixed file sets for the platforms without overrides.
const (
	linuxSharedLib     = "libllama.so"
	ggmlStaticLib      = "libggml_static.a"
	androidLlamaLib    = "libllama.a"
	macLlamaDylib      = "libllama.dylib"
	macGgmlSharedDylib = "libggml_shared.dylib"
)

func bundledLibDir(dirRoot string, p types.TargetPlatform) string {
	return filepath.Join(dirRoot, "Libraries", string(p))
}

func resolveLinux(r *Resolver, in input) (types.LinkPlan, error) {
	c := fsutil.CheckDir(bundledLibDir(in.dirRoot, types.PlatformLinux), linuxSharedLib)
	if !c.Valid() {
		return types.LinkPlan{}, checkError(types.PlatformLinux, RootBundled, c)
	}
	plan := newPlan(types.PlatformLinux)
	plan.LibraryRoot = c.Dir
	plan.RootSource = RootBundled
	plan.AddLink(c.Path(linuxSharedLib), types.LinkShared)
	return plan, nil
}

func resolveAndroid(r *Resolver, in input) (types.LinkPlan, error) {
	c := fsutil.CheckDir(bundledLibDir(in.dirRoot, types.PlatformAndroid), ggmlStaticLib, androidLlamaLib)
	if !c.Valid() {
		return types.LinkPlan{}, checkError(types.PlatformAndroid, RootBundled, c)
	}
	plan := newPlan(types.PlatformAndroid)
	plan.LibraryRoot = c.Dir
	plan.RootSource = RootBundled
	plan.AddLink(c.Path(ggmlStaticLib), types.LinkStatic)
	plan.AddLink(c.Path(androidLlamaLib), types.LinkStatic)
	return plan, nil
}

// resolveMac links the ggml archive from the plugin's Libraries tree and the
// two dylibs from the ThirdParty tree. A dylib is both a link input and a
// runtime file, so each one is registered in both lists.
func resolveMac(r *Resolver, in input) (types.LinkPlan, error) {
	static := fsutil.CheckDir(bundledLibDir(in.dirRoot, types.PlatformMac), ggmlStaticLib)
	if !static.Valid() {
		return types.LinkPlan{}, checkError(types.PlatformMac, RootBundled, static)
	}
	dylibs := fsutil.CheckDir(filepath.Join(in.libRoot, string(types.PlatformMac)), macLlamaDylib, macGgmlSharedDylib)
	if !dylibs.Valid() {
		return types.LinkPlan{}, checkError(types.PlatformMac, RootBundled, dylibs)
	}

	plan := newPlan(types.PlatformMac)
	plan.LibraryRoot = dylibs.Dir
	plan.RootSource = RootBundled
	plan.AddLink(static.Path(ggmlStaticLib), types.LinkStatic)
	for _, name := range []string{macLlamaDylib, macGgmlSharedDylib} {
		p := dylibs.Path(name)
		plan.AddLink(p, types.LinkSharedDelayLoaded)
		plan.AddDelayLoad(name)
		plan.AddRuntimeCopy(p, r.deployed(name))
	}
	return plan, nil
}
