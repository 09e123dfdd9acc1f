package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/codec"
	"github.com/reoring/goklab/engine"
	"github.com/reoring/goklab/internal/wire"
)

func newDecodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <geometry>",
		Short: "Print a geometry string as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := codec.Geometry().Decode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := wire.MarshalIndent(wire.NewGeometryDoc(g))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(b))
			return err
		},
	}
}

func newEncodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <geometry>",
		Short: "Rewrite a geometry string in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := codec.Geometry().Decode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, err := codec.Geometry().Encode(cmd.Context(), g)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, s)
			return err
		},
	}
}

// extentFlags describe the space and time extent of build and observe.
type extentFlags struct {
	region     string
	urn        string
	bbox       []float64
	resolution string
	projection string
	years      []int
	multiple   bool
}

func (e *extentFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.region, "region", "", "irregular region: a URN or a WKT shape")
	f.StringVar(&e.urn, "grid-urn", "", "grid over a URN or WKT shape")
	f.Float64SliceVar(&e.bbox, "bbox", nil, "grid over a bounding box: x1,x2,y1,y2")
	f.StringVar(&e.resolution, "resolution", "", "grid resolution, e.g. \"1 km\"")
	f.StringVar(&e.projection, "projection", goklab.DefaultProjection, "projection of the bounding box")
	f.IntSliceVar(&e.years, "years", nil, "a year, or start,end years of a yearly grid")
	f.BoolVar(&e.multiple, "multiple", false, "mark the geometry as multiple")
}

func (e *extentFlags) build() (*goklab.Geometry, error) {
	b := goklab.NewBuilder()
	if e.region != "" {
		b.Region(e.region)
	}
	if e.urn != "" || len(e.bbox) > 0 || e.resolution != "" {
		var opts []goklab.GridOption
		if len(e.bbox) > 0 {
			if len(e.bbox) != 4 {
				return nil, fmt.Errorf("--bbox needs 4 values, got %d", len(e.bbox))
			}
			opts = append(opts, goklab.WithBBox(e.bbox[0], e.bbox[1], e.bbox[2], e.bbox[3]), goklab.WithProjection(e.projection))
		}
		if e.urn != "" {
			opts = append(opts, goklab.WithURN(e.urn))
		}
		if e.resolution != "" {
			opts = append(opts, goklab.WithResolution(e.resolution))
		}
		b.Grid(opts...)
	}
	if len(e.years) > 0 {
		b.Years(e.years...)
	}
	if e.multiple {
		b.Multiple()
	}
	return b.Build()
}

func newBuildCmd(c *cli) *cobra.Command {
	var ext extentFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a geometry from a region, grid and years",
		Example: `  goklab build --region "klab:area:tanzania" --years 2010
  goklab build --bbox 33.7,35.9,-9.4,-7.0 --resolution "1 km" --years 2010,2020`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ext.build()
			if err != nil {
				return err
			}
			s, err := codec.Geometry().Encode(cmd.Context(), g)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, s)
			return err
		},
	}
	ext.register(cmd)
	return cmd
}

type observeFlags struct {
	extentFlags
	contextType string
	observable  string
	name        string
	scenarios   []string
	export      string
	format      string
	output      string
}

func newObserveCmd(c *cli) *cobra.Command {
	var o observeFlags
	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Create a context, observe an observable in it and export the result",
		Example: `  goklab observe --grid-urn "EPSG:4326 POLYGON((33.79 -7.08, 35.94 -7.08, 35.94 -9.41, 33.79 -9.41, 33.79 -7.08))" \
    --resolution "1 km" --years 2010 --observable geography:Elevation --output elevation.tiff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.observe(cmd.Context(), &o)
		},
	}
	o.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.contextType, "context-type", "earth:Region", "semantics of the context")
	f.StringVar(&o.observable, "observable", "", "semantics to observe in the context")
	f.StringVar(&o.name, "name", "", "name of the observation (default: derived by the engine)")
	f.StringSliceVar(&o.scenarios, "scenario", nil, "scenario URN to activate (repeatable)")
	f.StringVar(&o.export, "export", "data", "what to export: data, legend, view, report, ...")
	f.StringVar(&o.format, "format", "GEOTIFF_RASTER", "export format")
	f.StringVarP(&o.output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("observable")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *cli) observe(ctx context.Context, o *observeFlags) error {
	target, err := engine.ParseExport(o.export)
	if err != nil {
		return err
	}
	format, err := engine.ParseExportFormat(o.format)
	if err != nil {
		return err
	}
	if !format.Allows(target) {
		return fmt.Errorf("%w: cannot export %s as %s", engine.ErrIllegalArgument, target, format)
	}
	g, err := o.build()
	if err != nil {
		return err
	}
	observable := engine.NewObservable(o.observable)
	if o.name != "" {
		observable.Named(o.name)
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := engine.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("closing session", "err", err)
		}
	}()

	ch, err := session.Submit(ctx, engine.NewObservable(o.contextType), g, engine.WithScenarios(o.scenarios...))
	if err != nil {
		return err
	}
	logger.Info("context submitted", "ticket", ch.ID(), "geometry", g.String())
	kctx, err := ch.Get(ctx)
	if err != nil {
		return err
	}

	oh, err := kctx.Submit(ctx, observable, o.scenarios...)
	if err != nil {
		return err
	}
	logger.Info("observation submitted", "ticket", oh.ID(), "observable", observable.String())
	obs, err := oh.Get(ctx)
	if err != nil {
		return err
	}
	if obs.IsEmpty() {
		return fmt.Errorf("observation of %s is empty", observable)
	}

	n, err := obs.ExportFile(ctx, target, format, o.output)
	if err != nil {
		return err
	}
	logger.Info("export written", "file", o.output, "bytes", n)
	_, err = fmt.Fprintln(c.out, o.output)
	return err
}
