package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLI holds the command line interface state
type CLI struct {
	v *viper.Viper
}

func newRootCommand() *cobra.Command {
	cli := &CLI{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "runtrack",
		Short:         "Inspect the runtrack client session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().String("trace-exporter", "", "Export bootstrap spans (otlp or zipkin)")
	rootCmd.PersistentFlags().String("trace-endpoint", "", "Endpoint for the trace exporter")

	// Flags can also come from RUNTRACK_METRICS_ADDR and friends
	cli.v.SetEnvPrefix("RUNTRACK")
	cli.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.v.AutomaticEnv()
	rootCmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		_ = cli.v.BindPFlag(flag.Name, flag)
	})

	rootCmd.AddCommand(newSetupCommand(cli))
	rootCmd.AddCommand(newWorkerCommand())

	return rootCmd
}
