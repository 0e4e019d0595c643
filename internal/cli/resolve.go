package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"llamalink/internal/planfmt"
	"llamalink/pkg/types"
)

func parsePlatformFlag(s string) (types.TargetPlatform, error) {
	if s == "" {
		return "", fmt.Errorf("--platform is required (one of %s)", platformList())
	}
	p, ok := types.ParsePlatform(s)
	if !ok {
		// unknown names still reach the resolver so the error is a ConfigurationError
		return types.TargetPlatform(s), nil
	}
	return p, nil
}

func platformList() string {
	names := make([]string, 0, len(types.Platforms()))
	for _, p := range types.Platforms() {
		names = append(names, string(p))
	}
	return strings.Join(names, "|")
}

func newResolveCmd(o *options) *cobra.Command {
	var (
		platform    string
		format      string
		metricsFile string
		debugDump   bool
	)
	cmd := &cobra.Command{
		Use:     "resolve",
		Short:   "Print the link plan for a platform",
		Example: "  llamalink resolve --plugin-dir Plugins/Llama --platform Win64\n  llamalink resolve --plugin-dir Plugins/Llama --platform Linux --format ldflags\n  llamalink resolve --plugin-dir Plugins/Llama --platform Mac --format cflags",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatformFlag(platform)
			if err != nil {
				return err
			}
			f, err := planfmt.ParseFormat(format)
			if err != nil {
				return err
			}
			libRoot, dirRoot, err := o.cfg.Roots()
			if err != nil {
				return err
			}
			plan, err := o.resolver().Resolve(p, libRoot, dirRoot, processEnv)
			if metricsFile != "" {
				if werr := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); werr != nil {
					o.log.Warn().Err(werr).Str("path", metricsFile).Msg("write metrics textfile")
				}
			}
			if err != nil {
				return err
			}
			if debugDump {
				spew.Fdump(cmd.ErrOrStderr(), plan)
			}
			return planfmt.Encode(cmd.OutOrStdout(), plan, f)
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Target platform: "+platformList())
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: "+planfmt.FormatNames("|"))
	cmd.Flags().StringVar(&metricsFile, "metrics-textfile", "", "Write resolver metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&debugDump, "debug", false, "Dump the resolved plan to stderr")
	return cmd
}

func newCheckCmd(o *options) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the plugin layout for a platform without printing the plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatformFlag(platform)
			if err != nil {
				return err
			}
			libRoot, dirRoot, err := o.cfg.Roots()
			if err != nil {
				return err
			}
			plan, err := o.resolver().Resolve(p, libRoot, dirRoot, processEnv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s %s %s\n", plan.Platform, plan.RootSource, plan.Fingerprint())
			return nil
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Target platform: "+platformList())
	return cmd
}

func newMatrixCmd(o *options) *cobra.Command {
	var platforms []string
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Resolve several platforms and print a summary table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := types.Platforms()
			if len(platforms) > 0 {
				targets = targets[:0:0]
				for _, s := range platforms {
					p, err := parsePlatformFlag(s)
					if err != nil {
						return err
					}
					targets = append(targets, p)
				}
			}
			libRoot, dirRoot, err := o.cfg.Roots()
			if err != nil {
				return err
			}
			results := o.resolver().ResolveAll(targets, libRoot, dirRoot, processEnv)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLATFORM\tSTATUS\tSOURCE\tLINKS\tCOPIES\tDETAIL")
			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(tw, "%s\terror\t-\t-\t-\t%s\n", r.Platform, r.Err)
					continue
				}
				fmt.Fprintf(tw, "%s\tok\t%s\t%d\t%d\t%s\n", r.Platform, r.Plan.RootSource, len(r.Plan.Links), len(r.Plan.RuntimeCopies), r.Plan.Fingerprint())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d platforms failed to resolve", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "Comma-separated platforms (defaults to all)")
	return cmd
}
