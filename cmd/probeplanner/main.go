package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"probeplanner/internal/models"
	"probeplanner/pkg/atlas"
	"probeplanner/pkg/config"
	"probeplanner/pkg/geometry"
	"probeplanner/pkg/planner"
	"probeplanner/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "probeplanner.yaml", "Configuration file")
	ontologyPath := flag.String("ontology", "", "Atlas structures file (overrides config)")
	annotationPath := flag.String("annotation", "", "Atlas annotation header (overrides config)")
	probeFile := flag.String("probe", "", "Load probe parameters from file instead of aiming")
	aimAt := flag.String("aim-at", "", "Name of brain region to aim at (default: whole brain)")
	hemisphere := flag.String("hemisphere", "both", "Target hemisphere: left, right or both")
	apAngle := flag.Float64("ap-angle", 0, "Tilt around the AP axis in degrees")
	mlAngle := flag.Float64("ml-angle", 0, "Tilt around the ML axis in degrees")
	highlight := flag.String("highlight", "", "Brain regions to highlight (separated by space)")
	save := flag.Bool("save", false, "Save the probe parameters after planning")
	snapshot := flag.Bool("snapshot", false, "Save atlas sections through the probe tip")
	debug := flag.Bool("debug", false, "Enable debug logging")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to create config file: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *ontologyPath != "" {
		cfg.Atlas.Ontology = *ontologyPath
	}
	if *annotationPath != "" {
		cfg.Atlas.Annotation = *annotationPath
	}
	if *highlight != "" {
		cfg.Planner.Highlight = strings.Fields(*highlight)
	}

	level := slog.LevelInfo
	if *debug || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := atlas.Load(cfg.Atlas.Ontology, cfg.Atlas.Annotation)
	if err != nil {
		log.Fatalf("Failed to load atlas: %v", err)
	}

	probe, err := initialProbe(a, cfg, *probeFile, *aimAt, *hemisphere, *apAngle, *mlAngle)
	if err != nil {
		log.Fatalf("Failed to create probe: %v", err)
	}

	opts := planner.OptionsFromConfig(cfg)
	opts.Logger = logger
	session, err := planner.NewSession(a, probe, opts)
	if err != nil {
		log.Fatalf("Planning failed: %v", err)
	}

	printReport(session)

	if *save {
		if err := session.Save(cfg.Planner.SaveFile); err != nil {
			log.Fatalf("Failed to save probe: %v", err)
		}
		fmt.Printf("\nProbe saved to: %s\n", cfg.Planner.SaveFile)
	}

	if *snapshot {
		viewer := visualization.NewViewer(a)
		files, err := viewer.SaveProbeSnapshots(session.Probe(), cfg.Output.SnapshotDir)
		if err != nil {
			log.Printf("Warning: Failed to save snapshots: %v", err)
		}
		for _, f := range files {
			fmt.Printf("Snapshot saved to: %s\n", f)
		}
	}
}

// initialProbe loads the probe from file, or aims a default probe at a region
func initialProbe(a atlas.Atlas, cfg *config.Config, probeFile, aimAt, hemisphere string, apAngle, mlAngle float64) (geometry.ProbeGeometry, error) {
	if probeFile != "" {
		return geometry.Load(probeFile)
	}

	h, err := atlas.ParseHemisphere(hemisphere)
	if err != nil {
		return geometry.ProbeGeometry{}, err
	}

	base := geometry.New(r3.Vec{})
	base.Length = cfg.Probe.Length
	base.Radius = cfg.Probe.Radius
	base.Color = cfg.Probe.Color
	base = base.WithROIs(models.ROI{Start: 0, End: base.Length})

	probe, err := planner.AimAt(a, base, aimAt, h)
	if err != nil {
		return geometry.ProbeGeometry{}, err
	}
	return probe.WithTilt(apAngle, mlAngle), nil
}

func printReport(s *planner.Session) {
	probe := s.Probe()
	tip := probe.Tip
	relTip := geometry.RelativeToBregma(tip)

	fmt.Println("================================")
	fmt.Println("PROBE PLANNER")
	fmt.Println("================================")

	fmt.Printf("\nPosition of TIP in CCF coordinates:\n")
	fmt.Printf("AP: %.0f micrometers\n", tip.X)
	fmt.Printf("ML: %.0f micrometers\n", tip.Z)
	fmt.Printf("DV: %.0f micrometers\n", tip.Y)

	fmt.Printf("\nAngles:\n")
	fmt.Printf("AP angle: %.0f degrees\n", probe.TiltAP)
	fmt.Printf("ML angle: %.0f degrees\n", probe.TiltML)

	fmt.Printf("\nPosition of TIP relative to bregma:\n")
	fmt.Printf("AP: %.3f mm\n", relTip.X)
	fmt.Printf("ML: %.3f mm\n", relTip.Z)
	fmt.Printf("DV: %.3f mm\n", relTip.Y)

	if skull, ok := probe.SkullPoint(); ok {
		relSkull := geometry.RelativeToBregma(skull.Coordinates())
		fmt.Printf("\nPosition of TOP relative to bregma:\n")
		fmt.Printf("AP: %.3f mm\n", relSkull.X)
		fmt.Printf("ML: %.3f mm\n", relSkull.Z)
		fmt.Printf("DV: 0 mm\n")
	}
	fmt.Printf("\nShank length in skull: %.2f microns\n", probe.LengthInSkull())

	tipRegion := s.TipRegion()
	if tipRegion == "" {
		tipRegion = "none"
	}
	fmt.Printf("\nProbe tip is in: %q\n\n", tipRegion)
	fmt.Print(s.Tree().String())
}
