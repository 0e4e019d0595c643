package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"llamalink/internal/probe"
	"llamalink/pkg/types"
)

// withIO captures output and pins the environment for one test.
func withIO(t *testing.T, env probe.Map) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	oldOut, oldErr, oldEnv := stdout, stderr, processEnv
	out, errb := &bytes.Buffer{}, &bytes.Buffer{}
	stdout, stderr, processEnv = out, errb, env
	t.Cleanup(func() { stdout, stderr, processEnv = oldOut, oldErr, oldEnv })
	return out, errb
}

func writeLayout(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	files := map[string][]string{
		filepath.Join(d, "Includes"):                               {"llama.h"},
		filepath.Join(d, "Libraries", "Linux"):                     {"libllama.so"},
		filepath.Join(d, "Libraries", "Android"):                   {"libggml_static.a", "libllama.a"},
		filepath.Join(d, "Libraries", "Mac"):                       {"libggml_static.a"},
		filepath.Join(d, "ThirdParty", "LlamaCpp", "Mac"):          {"libllama.dylib", "libggml_shared.dylib"},
		filepath.Join(d, "ThirdParty", "LlamaCpp", "Win64", "Cpu"): {"llama.lib", "ggml.lib", "llama.dll", "ggml.dll"},
	}
	for dir, names := range files {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, n := range names {
			if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return d
}

func TestMainWithArgs_NoArgs_ShowsUsageAndExit2(t *testing.T) {
	out, errb := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{}); code != 2 {
		t.Fatalf("expected exit code 2 for no args, got %d", code)
	}
	if !strings.Contains(out.String()+errb.String(), "llamalink") {
		t.Fatalf("expected usage, got %q", out.String()+errb.String())
	}
}

func TestMainWithArgs_UnknownCommand_Exit1(t *testing.T) {
	withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"wat"}); code != 1 {
		t.Fatalf("expected exit code 1 for unknown command, got %d", code)
	}
}

func TestResolve_Win64JSON(t *testing.T) {
	d := writeLayout(t)
	out, _ := withIO(t, probe.Map{})
	code := MainWithArgs([]string{"resolve", "--plugin-dir", d, "--platform", "win64", "--log-level", "off"})
	if code != 0 {
		t.Fatalf("exit=%d", code)
	}
	var plan types.LinkPlan
	if err := json.Unmarshal(out.Bytes(), &plan); err != nil {
		t.Fatalf("json: %v\n%s", err, out.String())
	}
	if plan.Platform != types.PlatformWin64 || len(plan.Links) != 2 || len(plan.RuntimeCopies) != 2 {
		t.Fatalf("plan=%+v", plan)
	}
	if plan.LibraryRoot != filepath.Join(d, "ThirdParty", "LlamaCpp", "Win64", "Cpu") {
		t.Fatalf("root=%s", plan.LibraryRoot)
	}
}

func TestResolve_EnvOverrideMissingFile_Exit1(t *testing.T) {
	d := writeLayout(t)
	override := t.TempDir()
	_, errb := withIO(t, probe.Map{"LLAMA_PATH": override})
	code := MainWithArgs([]string{"resolve", "--plugin-dir", d, "--platform", "Win64", "--log-level", "off"})
	if code != 1 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(errb.String(), override) || !strings.Contains(errb.String(), "ggml.lib") {
		t.Fatalf("diagnostic should name path and file: %q", errb.String())
	}
}

func TestResolve_LDFlagsAndDebugDump(t *testing.T) {
	d := writeLayout(t)
	out, errb := withIO(t, probe.Map{})
	code := MainWithArgs([]string{"resolve", "--plugin-dir", d, "-p", "Linux", "-f", "ldflags", "--debug", "--log-level", "off"})
	if code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(out.String(), "-lllama") || !strings.Contains(out.String(), "-Wl,-rpath,"+filepath.Join(d, "Libraries", "Linux")) {
		t.Fatalf("ldflags=%q", out.String())
	}
	if !strings.Contains(errb.String(), "LinkPlan") {
		t.Fatalf("expected spew dump on stderr, got %q", errb.String())
	}
}

func TestResolve_CFlags(t *testing.T) {
	d := writeLayout(t)
	out, _ := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"resolve", "--plugin-dir", d, "-p", "Android", "-f", "cflags", "--log-level", "off"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if got, want := out.String(), "-I"+filepath.Join(d, "Includes")+"\n"; got != want {
		t.Fatalf("cflags=%q want %q", got, want)
	}
}

func TestResolve_MissingPlatformFlag(t *testing.T) {
	d := writeLayout(t)
	_, errb := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"resolve", "--plugin-dir", d}); code != 1 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(errb.String(), "--platform is required") {
		t.Fatalf("stderr=%q", errb.String())
	}
}

func TestResolve_MissingPluginDir(t *testing.T) {
	_, errb := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"resolve", "-p", "Linux"}); code != 1 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(errb.String(), "plugin_dir is required") {
		t.Fatalf("stderr=%q", errb.String())
	}
}

func TestResolve_MetricsTextfile(t *testing.T) {
	d := writeLayout(t)
	withIO(t, probe.Map{})
	metrics := filepath.Join(t.TempDir(), "llamalink.prom")
	if code := MainWithArgs([]string{"resolve", "--plugin-dir", d, "-p", "Android", "--metrics-textfile", metrics, "--log-level", "off"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	b, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(b), "llamalink_resolver_resolutions_total") {
		t.Fatalf("metrics file missing resolver counter")
	}
}

func TestCheck_UnsupportedPlatform(t *testing.T) {
	d := writeLayout(t)
	_, errb := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"check", "--plugin-dir", d, "-p", "Switch", "--log-level", "off"}); code != 1 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(errb.String(), "Switch: unsupported platform") {
		t.Fatalf("stderr=%q", errb.String())
	}
}

func TestCheck_OK(t *testing.T) {
	d := writeLayout(t)
	out, _ := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"check", "--plugin-dir", d, "-p", "mac", "--log-level", "off"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.HasPrefix(out.String(), "ok Mac bundled ") {
		t.Fatalf("stdout=%q", out.String())
	}
}

func TestMatrix_AllPlatforms(t *testing.T) {
	d := writeLayout(t)
	out, _ := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"matrix", "--plugin-dir", d, "--log-level", "off"}); code != 0 {
		t.Fatalf("exit=%d\n%s", code, out.String())
	}
	for _, p := range types.Platforms() {
		if !strings.Contains(out.String(), string(p)) {
			t.Fatalf("missing %s in %q", p, out.String())
		}
	}
}

func TestMatrix_FailureExit1(t *testing.T) {
	d := writeLayout(t)
	if err := os.Remove(filepath.Join(d, "Libraries", "Linux", "libllama.so")); err != nil {
		t.Fatal(err)
	}
	out, errb := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"matrix", "--plugin-dir", d, "--platforms", "Linux,Android", "--log-level", "off"}); code != 1 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(out.String(), "missing libllama.so") {
		t.Fatalf("stdout=%q", out.String())
	}
	if !strings.Contains(errb.String(), "1 of 2 platforms failed") {
		t.Fatalf("stderr=%q", errb.String())
	}
}

func TestConfigFileAndFlagsMerge(t *testing.T) {
	d := writeLayout(t)
	cfgPath := filepath.Join(t.TempDir(), "llamalink.yaml")
	content := "plugin_dir: " + d + "\ndelay_load: true\nbinary_output_dir: out/bin\nlog_level: \"off\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ := withIO(t, probe.Map{"LLAMALINK_CONFIG": cfgPath})
	if code := MainWithArgs([]string{"resolve", "-p", "Win64", "-f", "yaml", "--no-cuda"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	s := out.String()
	if !strings.Contains(s, "out/bin/llama.dll") || !strings.Contains(s, "delay_load:") || !strings.Contains(s, "requested: false") {
		t.Fatalf("yaml=%s", s)
	}
}

func TestCompletionBash(t *testing.T) {
	out, _ := withIO(t, probe.Map{})
	if code := MainWithArgs([]string{"completion", "bash", "--log-level", "off"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(out.String(), "llamalink") {
		t.Fatalf("completion output missing command name")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning").String() != "warn" || parseLevel("bogus").String() != "info" || parseLevel("DEBUG").String() != "debug" {
		t.Fatalf("parseLevel mapping broken")
	}
}

func TestDelayLoadFlagOverridesConfig(t *testing.T) {
	d := writeLayout(t)
	cfgPath := filepath.Join(t.TempDir(), "llamalink.yaml")
	content := "plugin_dir: " + d + "\ndelay_load: true\nlog_level: \"off\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ := withIO(t, probe.Map{"LLAMALINK_CONFIG": cfgPath})
	if code := MainWithArgs([]string{"resolve", "-p", "Win64", "--delay-load=false"}); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	var plan types.LinkPlan
	if err := json.Unmarshal(out.Bytes(), &plan); err != nil {
		t.Fatalf("json: %v\n%s", err, out.String())
	}
	if len(plan.DelayLoad) != 0 || len(plan.RuntimeCopies) != 2 {
		t.Fatalf("delay_load=%v copies=%d", plan.DelayLoad, len(plan.RuntimeCopies))
	}
}
