package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

// fixture is a plugin tree laid out the way the resolver expects:
//
//	<dir>/Includes/
//	<dir>/Libraries/{Linux,Mac,Android}/...
//	<dir>/ThirdParty/LlamaCpp/{Win64/Cpu,Win64/Cuda,Mac}/...
type fixture struct {
	dir    string
	libDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	d := t.TempDir()
	writeFiles(t, filepath.Join(d, "Includes"), "llama.h")
	return fixture{dir: d, libDir: filepath.Join(d, "ThirdParty", "LlamaCpp")}
}

func writeFiles(t *testing.T, dir string, names ...string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return dir
}

func (f fixture) cpu(t *testing.T, names ...string) string {
	return writeFiles(t, filepath.Join(f.libDir, "Win64", "Cpu"), names...)
}

func (f fixture) cuda(t *testing.T, names ...string) string {
	return writeFiles(t, filepath.Join(f.libDir, "Win64", "Cuda"), names...)
}

func (f fixture) full(t *testing.T) {
	t.Helper()
	writeFiles(t, filepath.Join(f.dir, "Libraries", "Linux"), "libllama.so")
	writeFiles(t, filepath.Join(f.dir, "Libraries", "Android"), "libggml_static.a", "libllama.a")
	writeFiles(t, filepath.Join(f.dir, "Libraries", "Mac"), "libggml_static.a")
	writeFiles(t, filepath.Join(f.libDir, "Mac"), "libllama.dylib", "libggml_shared.dylib")
	f.cpu(t, win64Files...)
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		t.Fatalf("expected file at %s (err=%v)", path, err)
	}
}
