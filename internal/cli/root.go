package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamalink/internal/config"
	"llamalink/internal/resolver"
)

// Environment variables providing flag defaults.
const (
	envConfig   = "LLAMALINK_CONFIG"
	envLogLevel = "LLAMALINK_LOG_LEVEL"
	envAddr     = "LLAMALINK_ADDR"
)

// options are the persistent flags, layered over the config file.
type options struct {
	configPath   string
	logLevel     string
	pluginDir    string
	pluginLibDir string
	noCUDA       bool
	delayLoad    bool
	linkCUDALibs bool
	outputDir    string

	cfg config.Config
	log zerolog.Logger
}

// load merges the config file (if any) with flags and installs the logger.
// Bool flags override the file only when given on the command line.
func (o *options) load(cmd *cobra.Command) error {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
	}
	over := config.Config{
		PluginDir:       o.pluginDir,
		PluginLibDir:    o.pluginLibDir,
		BinaryOutputDir: o.outputDir,
		LogLevel:        o.logLevel,
	}
	flags := cmd.Flags()
	if o.noCUDA {
		off := false
		over.TryCUDA = &off
	}
	if flags.Changed("delay-load") {
		v := o.delayLoad
		over.DelayLoad = &v
	}
	if flags.Changed("link-cuda-libs") {
		v := o.linkCUDALibs
		over.LinkAcceleratorLibs = &v
	}
	o.cfg = cfg.Merge(over)
	o.log = newLogger(o.cfg.LogLevel)
	return nil
}

// resolver builds a Resolver that records outcomes in the default registry.
func (o *options) resolver() *resolver.Resolver {
	opts := o.cfg.ResolverOptions()
	opts.Recorder = resolver.NewMetrics(prometheus.DefaultRegisterer)
	return resolver.New(opts)
}

// buildRootCmd constructs the command tree.
func buildRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "llamalink",
		Short:         "Resolve prebuilt llama.cpp/ggml link plans per target platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", envStr(envConfig, ""), "Config file (.yaml|.json|.toml, defaults LLAMALINK_CONFIG)")
	pf.StringVar(&o.logLevel, "log-level", envStr(envLogLevel, ""), "Log level: debug|info|warn|error|off (defaults LLAMALINK_LOG_LEVEL or info)")
	pf.StringVar(&o.pluginDir, "plugin-dir", "", "Plugin directory holding Libraries/<Platform>")
	pf.StringVar(&o.pluginLibDir, "plugin-lib-dir", "", "Prebuilt library root (defaults <plugin-dir>/ThirdParty/LlamaCpp)")
	pf.BoolVar(&o.noCUDA, "no-cuda", false, "Skip the CUDA capability probe on Win64")
	pf.BoolVar(&o.delayLoad, "delay-load", false, "Register Win64 DLLs for delay-loading")
	pf.BoolVar(&o.linkCUDALibs, "link-cuda-libs", false, "Link cudart/cublas/cuda import libraries when CUDA is found")
	pf.StringVar(&o.outputDir, "binary-output-dir", "", "Runtime copy destination token (defaults $(BinaryOutputDir))")

	root.AddCommand(newResolveCmd(o), newCheckCmd(o), newMatrixCmd(o), newServeCmd(o), newCompletionCmd(root))
	return root
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	return completionCmd
}

// MainWithArgs runs the CLI and returns an exit code: 0 on success, 1 on
// error, 2 when no command was given.
func MainWithArgs(args []string) int {
	root := buildRootCmd()
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}
