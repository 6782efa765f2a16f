package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/i474232898/skyplanner/internal/client"
)

const defaultAPI = "http://127.0.0.1:8080"

// options holds the flag values shared by every subcommand.
type options struct {
	api        string
	lat, lon   float64
	elev       float64
	datetime   string
	target     string
	days       int
	max        int
	clouds     float64
	noRefract  bool
	jsonOutput bool
	timeout    time.Duration
	verbose    bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "skyplan",
		Short: "Plan planet and Moon observations from a skyplanner server",
		Long: `skyplan queries a skyplanner server for the current sky, a scored
observing plan for one target, or the best upcoming viewing windows.

A plan scoring 0.75 or more is reported as a "Good window".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			opts.logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	api := os.Getenv("SKYPLANNER_API")
	if api == "" {
		api = defaultAPI
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.api, "api", api, "skyplanner server URL (or set SKYPLANNER_API)")
	pf.Float64Var(&opts.lat, "lat", 0, "Observer latitude in degrees, north positive")
	pf.Float64Var(&opts.lon, "lon", 0, "Observer longitude in degrees, east positive")
	pf.Float64Var(&opts.elev, "elev", 0, "Observer elevation in meters")
	pf.StringVar(&opts.datetime, "datetime", "", "Instant in RFC3339 (default: now)")
	pf.BoolVar(&opts.noRefract, "no-refraction", false, "Report geometric altitudes")
	pf.BoolVar(&opts.jsonOutput, "json", false, "Print the raw JSON response")
	pf.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	_ = rootCmd.MarkPersistentFlagRequired("lat")
	_ = rootCmd.MarkPersistentFlagRequired("lon")

	rootCmd.AddCommand(newSkyCmd(opts), newPlanCmd(opts), newWindowsCmd(opts))
	return rootCmd
}

func newSkyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sky",
		Short: "Show where every body is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			res, err := opts.client().Sky(ctx, q)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, client.SummarizeSky(res))
		},
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Score observing conditions for a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			res, err := opts.client().Plan(ctx, q)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, client.SummarizePlan(res))
		},
	}
	addTargetFlags(cmd, opts)
	return cmd
}

func newWindowsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Find the best viewing windows in the coming days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query(cmd)
			if err != nil {
				return err
			}
			q.DaysAhead = opts.days
			q.MaxWindows = opts.max

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			res, err := opts.client().Windows(ctx, q)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, client.SummarizeWindows(res))
		},
	}
	addTargetFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.days, "days", 60, "Days to search, 1-365")
	cmd.Flags().IntVar(&opts.max, "max", 3, "Windows to return, 1-10")
	return cmd
}

func addTargetFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.target, "target", "t", "saturn", "Target body")
	cmd.Flags().Float64Var(&opts.clouds, "clouds", 0, "Cloud cover percent (default: looked up by the server for plan)")
}

func (o *options) client() *client.Client {
	return client.New(o.api, nil, o.logger)
}

func (o *options) query(cmd *cobra.Command) (client.Query, error) {
	q := client.Query{
		Lat:          o.lat,
		Lon:          o.lon,
		Elev:         o.elev,
		NoRefraction: o.noRefract,
		Target:       o.target,
	}
	if o.datetime != "" {
		at, err := time.Parse(time.RFC3339, o.datetime)
		if err != nil {
			return q, fmt.Errorf("invalid --datetime %q: use RFC3339", o.datetime)
		}
		q.Time = at
	}
	if f := cmd.Flags().Lookup("clouds"); f != nil && f.Changed {
		clouds := o.clouds
		q.CloudCoverPct = &clouds
	}
	return q, nil
}

func (o *options) print(w io.Writer, v any, summary string) error {
	if o.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := io.WriteString(w, summary)
	return err
}
