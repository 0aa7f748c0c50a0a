package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rushteam/courserec/config"
	_ "github.com/rushteam/courserec/config/builders"
)

var version = "dev"

type rootOptions struct {
	configPath string
	demo       bool
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "courserec",
		Short: "courserec - course recommendation engine",
		Long: `courserec recommends courses for a semester.

Candidates are retrieved from a vector index by semantic similarity to a free
text query, filtered by prerequisites and hard constraints, then ranked by a
weighted sum of semantic score, credits, average grade and ratings.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: $COURSEREC_CONFIG or ./courserec.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.demo, "demo", false, "Use a built-in in-memory sample catalog")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newRecommendCommand(opts))
	cmd.AddCommand(newCourseCommand(opts))
	cmd.AddCommand(newIndexCommand(opts))

	return cmd
}

// open 按全局参数组装运行时
func (o *rootOptions) open(ctx context.Context) (*config.App, error) {
	if o.demo {
		return openDemo(ctx, o.debug)
	}
	s, err := config.LoadSettings(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.debug {
		s.Log.Level = "debug"
	}
	return config.Bootstrap(ctx, s)
}

func execute() error {
	return newRootCommand().Execute()
}
