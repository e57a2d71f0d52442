package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapaev95/ephemeris-agpl-service/internal/app"
	"github.com/rapaev95/ephemeris-agpl-service/internal/domain"
)

// instantFlags are shared by the calculation commands.
type instantFlags struct {
	jd       float64
	datetime string
	tz       string
}

func (f *instantFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.jd, "jd", 0, "Julian day (UT)")
	cmd.Flags().StringVar(&f.datetime, "datetime", "", "RFC 3339 timestamp, or local time with --tz")
	cmd.Flags().StringVar(&f.tz, "tz", "", "IANA time zone for --datetime without offset")
}

func (f *instantFlags) instant(cmd *cobra.Command) (domain.TimeInstant, error) {
	hasJD := cmd.Flags().Changed("jd")
	switch {
	case hasJD && f.datetime != "":
		return domain.TimeInstant{}, fmt.Errorf("use either --jd or --datetime, not both")
	case hasJD:
		return domain.InstantFromJulianDay(f.jd)
	case f.datetime != "":
		return domain.ParseCivilTime(f.datetime, f.tz)
	default:
		return domain.InstantFromTime(time.Now())
	}
}

func newPositionsCmd() *cobra.Command {
	var (
		at       instantFlags
		frame    domain.Frame
		ayanamsa int
	)

	cmd := &cobra.Command{
		Use:   "positions [body...]",
		Short: "Print ecliptic positions",
		Long:  "Prints ecliptic positions for the given bodies (all bodies when none are named). Defaults to the current time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := at.instant(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, b := range domain.Bodies {
					args = append(args, string(b))
				}
			}
			frame.Ayanamsa = domain.Ayanamsa(ayanamsa)
			return runPositions(cmd, t, args, frame)
		},
	}

	at.register(cmd)
	cmd.Flags().BoolVar(&frame.Sidereal, "sidereal", false, "Sidereal zodiac")
	cmd.Flags().IntVar(&ayanamsa, "ayanamsa", 0, "Ayanamsa code (0 Fagan/Bradley, 1 Lahiri, 3 Raman, 5 Krishnamurti)")
	cmd.Flags().BoolVar(&frame.Heliocentric, "heliocentric", false, "Heliocentric positions (planets only)")
	cmd.Flags().BoolVar(&frame.TruePosition, "true-position", false, "Geometric positions without light-time or aberration")
	cmd.Flags().BoolVar(&frame.IncludeSpeed, "speed", false, "Include longitude speed")

	return cmd
}

func runPositions(cmd *cobra.Command, t domain.TimeInstant, bodies []string, frame domain.Frame) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := buildServices(buildOracle(cfg, logger))

	resp, err := svc.Positions.Positions(cmd.Context(), app.PositionRequest{Instant: t, Bodies: bodies, Frame: frame})
	if err != nil {
		return fmt.Errorf("computing positions: %w", err)
	}

	fmt.Printf("JD %.6f UT  (%s)  engine=%s\n\n", t.JulianDayUT(), t.Time().Format(time.RFC3339), svc.Engine)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tLONGITUDE\tDMS\tLATITUDE\tDISTANCE\tSPEED")
	for _, bp := range resp.Positions {
		p := bp.Position
		speed := "-"
		if p.HasSpeed {
			speed = fmt.Sprintf("%.6f", p.SpeedLongitude)
		}
		fmt.Fprintf(w, "%s\t%.6f\t%s\t%.6f\t%.8f\t%s\n", bp.Body, p.Longitude, formatDMS(p.Longitude), p.Latitude, p.Distance, speed)
	}
	return w.Flush()
}

func newHousesCmd() *cobra.Command {
	var (
		at       instantFlags
		lat, lon float64
		alt      float64
		system   string
	)

	cmd := &cobra.Command{
		Use:   "houses",
		Short: "Print house cusps and angles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := at.instant(cmd)
			if err != nil {
				return err
			}
			return runHouses(cmd, t, domain.GeoLocation{Latitude: lat, Longitude: lon, Altitude: alt}, system)
		},
	}

	at.register(cmd)
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude, north positive")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude, east positive")
	cmd.Flags().Float64Var(&alt, "alt", 0, "Altitude in metres")
	cmd.Flags().StringVarP(&system, "system", "s", "P", "House system code ("+strings.Join(domain.HouseSystemCodes(), " ")+")")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func runHouses(cmd *cobra.Command, t domain.TimeInstant, loc domain.GeoLocation, system string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := buildServices(buildOracle(cfg, logger))

	ch, err := svc.Houses.Houses(cmd.Context(), app.HouseRequest{Instant: t, Location: loc, System: system})
	if err != nil {
		return fmt.Errorf("computing houses: %w", err)
	}

	fmt.Printf("%s houses  JD %.6f UT  lat %.4f lon %.4f\n\n", ch.System.Name(), t.JulianDayUT(), loc.Latitude, loc.Longitude)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, c := range ch.Cusps {
		fmt.Fprintf(w, "%d\t%.6f\t%s\n", i+1, c, formatDMS(c))
	}
	fmt.Fprintf(w, "ASC\t%.6f\t%s\n", ch.Ascendant, formatDMS(ch.Ascendant))
	fmt.Fprintf(w, "MC\t%.6f\t%s\n", ch.MC, formatDMS(ch.MC))
	fmt.Fprintf(w, "ARMC\t%.6f\t\n", ch.ARMC)
	fmt.Fprintf(w, "EAST POINT\t%.6f\t%s\n", ch.EastPoint, formatDMS(ch.EastPoint))
	return w.Flush()
}

func newDesignTimeCmd() *cobra.Command {
	var (
		at        instantFlags
		offset    float64
		tolerance float64
		maxIter   int
	)

	cmd := &cobra.Command{
		Use:   "design-time",
		Short: "Find the Human Design time before a birth instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := at.instant(cmd)
			if err != nil {
				return err
			}
			return runDesignTime(cmd, app.DesignTimeRequest{
				Reference:     t,
				Offset:        offset,
				Tolerance:     tolerance,
				MaxIterations: maxIter,
			})
		},
	}

	at.register(cmd)
	cmd.Flags().Float64Var(&offset, "offset", domain.DesignOffset, "Solar arc in degrees")
	cmd.Flags().Float64Var(&tolerance, "tolerance", domain.DefaultTolerance, "Convergence tolerance in degrees")
	cmd.Flags().IntVar(&maxIter, "max-iter", domain.DefaultMaxIterations, "Iteration budget")

	return cmd
}

func runDesignTime(cmd *cobra.Command, req app.DesignTimeRequest) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc := buildServices(buildOracle(cfg, logger))

	res, err := svc.DesignTime.DesignTime(cmd.Context(), req)
	if err != nil && !domain.IsKind(err, domain.KindNotConverged) {
		return fmt.Errorf("searching design time: %w", err)
	}

	fmt.Printf("Birth   JD %.6f  %s  Sun %s\n", res.Reference.JulianDayUT(), res.Reference.Time().Format(time.RFC3339), formatDMS(res.ReferenceLongitude))
	fmt.Printf("Design  JD %.6f  %s  Sun %s\n", res.Found.JulianDayUT(), res.Found.Time().Format(time.RFC3339), formatDMS(res.AchievedLongitude))
	fmt.Printf("Offset  %.6f°  residual %.2e°  iterations %d\n", res.AchievedOffset, res.Residual, res.Iterations)
	if err != nil {
		return fmt.Errorf("best estimate shown: %w", err)
	}
	return nil
}

func formatDMS(deg float64) string {
	d := domain.ToDMS(deg)
	sign := ""
	if d.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%d°%02d'%05.2f\"", sign, d.Degrees, d.Minutes, d.Seconds)
}
