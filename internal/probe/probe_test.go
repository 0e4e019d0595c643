package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup_EmptyMeansUnset(t *testing.T) {
	env := Map{"A": "", "B": "x"}
	if _, ok := Lookup(env, "A"); ok {
		t.Fatalf("empty value should be treated as unset")
	}
	if v, ok := Lookup(env, "B"); !ok || v != "x" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
	if _, ok := Lookup(env, "C"); ok {
		t.Fatalf("missing key reported set")
	}
	if _, ok := Lookup(nil, "B"); ok {
		t.Fatalf("nil env reported set")
	}
}

func TestOSEnv(t *testing.T) {
	t.Setenv("LLAMALINK_PROBE_TEST", "v")
	if v, ok := Lookup(OS(), "LLAMALINK_PROBE_TEST"); !ok || v != "v" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
}

func TestCUDA_NotRequested(t *testing.T) {
	p := CUDA(Map{"CUDA_PATH": "/opt/cuda"}, CUDAOptions{EnvVar: "CUDA_PATH"})
	if p.Requested || p.Found {
		t.Fatalf("unexpected %+v", p)
	}
}

func TestCUDA_BundledWins(t *testing.T) {
	d := t.TempDir()
	if err := os.WriteFile(filepath.Join(d, "cuda.lib"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := CUDA(Map{"CUDA_PATH": "/opt/cuda"}, CUDAOptions{Requested: true, BundledDir: d, Marker: "cuda.lib", EnvVar: "CUDA_PATH"})
	if !p.Found || p.Dir != d || p.Source != SourceBundled {
		t.Fatalf("unexpected %+v", p)
	}
}

func TestCUDA_EnvFallback(t *testing.T) {
	p := CUDA(Map{"CUDA_PATH": "/opt/cuda"}, CUDAOptions{Requested: true, BundledDir: t.TempDir(), Marker: "cuda.lib", EnvVar: "CUDA_PATH"})
	want := filepath.Join("/opt/cuda", "lib", "x64")
	if !p.Found || p.Dir != want || p.Source != SourceEnv {
		t.Fatalf("unexpected %+v", p)
	}
}

func TestCUDA_NothingFound(t *testing.T) {
	p := CUDA(Map{"CUDA_PATH": ""}, CUDAOptions{Requested: true, BundledDir: t.TempDir(), Marker: "cuda.lib", EnvVar: "CUDA_PATH"})
	if !p.Requested || p.Found || p.Dir != "" || p.Source != "" {
		t.Fatalf("unexpected %+v", p)
	}
}
