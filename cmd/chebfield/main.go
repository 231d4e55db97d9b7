// Command chebfield builds, inspects and queries segmented Chebyshev field
// maps.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/magfield"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {

	logCfg := logConfig{}
	var log *zap.Logger

	root := &cobra.Command{
		Use:   "chebfield",
		Short: "chebfield - segmented Chebyshev field maps",
		Long: `chebfield fits analytic magnetic field models with truncated 3D Chebyshev
series over segmented regions, stores the result as a compact map file and
evaluates it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			log, err = newLogger(logCfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&logCfg.Level, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logCfg.Encoding, "log-format", "console", "Log encoding (console, json)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chebfield v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newBuildCmd(func() *zap.Logger { return log }))
	root.AddCommand(newInfoCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newDumpCmd())

	return root
}

func newBuildCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		configFile string
		outFile    string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fit a model file and write the map",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()

			cfg, err := LoadConfig(configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			start := time.Now()

			m, err := buildMap(ctx, cfg, log)
			if err != nil {
				log.Error("build failed", zap.Error(err))
				return err
			}

			if err = magfield.SaveFile(outFile, m, magfield.SaveOptions{Compress: *cfg.Compress}); err != nil {
				log.Error("write failed", zap.String("file", outFile), zap.Error(err))
				return err
			}

			log.Info("map written",
				zap.String("file", outFile),
				zap.Int("coefficients", m.NCoefs()),
				zap.Bool("compressed", *cfg.Compress),
				zap.Duration("elapsed", time.Since(start)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Model file (YAML)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "fieldmap.chebmap", "Output map file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort fitting after this duration (0: no limit)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func newInfoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "info <map>",
		Short: "Describe the regions of a map file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := magfield.LoadFile(args[0], magfield.LoadOptions{})
			if err != nil {
				return err
			}
			writeInfo(cmd.OutOrStdout(), m, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every fit")

	return cmd
}

func writeInfo(w io.Writer, m *magfield.Map, verbose bool) {
	fmt.Fprintf(w, "coefficients: %d\n", m.NCoefs())
	for k := magfield.RegionKind(0); k < magfield.NumRegions; k++ {
		r := m.Region(k)
		if r == nil {
			fmt.Fprintf(w, "%s: absent\n", k)
			continue
		}
		fmt.Fprintf(w, "%s: system=%s min=%v max=%v leaves=%d fits=%d coefficients=%d\n",
			k, r.System(), r.Min(), r.Max(), r.Segmentation().NumLeaves(), r.NumFits(), r.NCoefs())
		if !verbose {
			continue
		}
		for id := 0; id < r.NumFits(); id++ {
			fit := r.Fit(id)
			fmt.Fprintf(w, "  %s min=%v max=%v precision=%g coefficients=%d\n",
				fitLabel(k, id, fit), fit.BoundMin(), fit.BoundMax(), fit.Precision(), fit.NCoefs())
		}
	}
}

// fitLabel names a fit of a loaded map. Binary map files do not store fit
// names, so loaded fits are labelled by region and pool index.
func fitLabel(kind magfield.RegionKind, id int, fit *cheb.Fit3D) string {
	if name := fit.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("%s[%d]", kind, id)
}

func newEvalCmd() *cobra.Command {
	var (
		quantity string
		cyl      bool
		policy   string
	)

	cmd := &cobra.Command{
		Use:   "eval <map> x y z [x y z ...]",
		Short: "Evaluate a map at points",
		Long: `Evaluate a map at one or more points, given as coordinate triples.
Points and results are Cartesian unless --cyl is set, in which case both are
cylindrical (r, phi, z). Put -- before the map when coordinates are
negative.`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := cheb.ParseBoundaryPolicy(policy)
			if err != nil {
				return err
			}

			points, err := parsePoints(args[1:])
			if err != nil {
				return err
			}

			m, err := magfield.LoadFile(args[0], magfield.LoadOptions{Policy: bp})
			if err != nil {
				return err
			}

			eval, err := evaluator(m, quantity, cyl)
			if err != nil {
				return err
			}

			for _, p := range points {
				b := eval(p)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\t%s %s %s\n",
					formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]),
					formatFloat(b[0]), formatFloat(b[1]), formatFloat(b[2]))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&quantity, "quantity", "q", "field", "Quantity to evaluate (field, bz, tpcint)")
	cmd.Flags().BoolVar(&cyl, "cyl", false, "Use cylindrical coordinates and components")
	cmd.Flags().StringVar(&policy, "policy", cheb.Extrapolate.String(), "Out-of-box policy (extrapolate, clamp)")

	return cmd
}

// evaluator returns the map query selected by quantity.
func evaluator(m *magfield.Map, quantity string, cyl bool) (func([3]float64) [3]float64, error) {
	switch quantity {
	case "field":
		if cyl {
			return m.FieldCyl, nil
		}
		return m.Field, nil
	case "bz":
		return func(p [3]float64) [3]float64 {
			if cyl {
				p = magfield.CylToCart(p)
			}
			return [3]float64{2: m.Bz(p)}
		}, nil
	case "tpcint":
		if cyl {
			return m.TPCIntCyl, nil
		}
		return m.TPCInt, nil
	default:
		return nil, fmt.Errorf("invalid quantity %q: valid quantities are field, bz and tpcint", quantity)
	}
}

func parsePoints(args []string) ([][3]float64, error) {
	if len(args)%3 != 0 {
		return nil, fmt.Errorf("invalid points: got %d coordinates, want a multiple of 3", len(args))
	}
	points := make([][3]float64, len(args)/3)
	for i, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		points[i/3][i%3] = v
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newDumpCmd() *cobra.Command {
	var (
		region string
		fitID  int
	)

	cmd := &cobra.Command{
		Use:   "dump <map>",
		Short: "Write fits of a map in text form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := magfield.ParseRegionKind(region)
			if err != nil {
				return err
			}

			m, err := magfield.LoadFile(args[0], magfield.LoadOptions{})
			if err != nil {
				return err
			}

			return dumpRegion(cmd.OutOrStdout(), m, kind, fitID)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", magfield.Solenoid.String(), "Region (solenoid, dipole, tpcint)")
	cmd.Flags().IntVar(&fitID, "fit", -1, "Fit index in the region pool (-1: all)")

	return cmd
}

func dumpRegion(w io.Writer, m *magfield.Map, kind magfield.RegionKind, fitID int) error {
	r := m.Region(kind)
	if r == nil {
		return fmt.Errorf("region %q is absent", kind)
	}

	if fitID >= r.NumFits() || fitID < -1 {
		return fmt.Errorf("invalid fit %d: region %q has %d fits", fitID, kind, r.NumFits())
	}

	if fitID >= 0 {
		return r.Fit(fitID).WithName(fitLabel(kind, fitID, r.Fit(fitID))).WriteText(w)
	}

	for id := 0; id < r.NumFits(); id++ {
		if err := r.Fit(id).WithName(fitLabel(kind, id, r.Fit(id))).WriteText(w); err != nil {
			return fmt.Errorf("fit %d: %w", id, err)
		}
	}
	return nil
}
