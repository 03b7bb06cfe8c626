package main

import (
	"context"
	"fmt"
	"os"

	"github.com/djherbis/times"
	"github.com/spf13/cobra"

	"github.com/kiozen/gmapimg/internal/config"
	"github.com/kiozen/gmapimg/internal/img"
	"github.com/kiozen/gmapimg/pkg/gmap"
)

// fileTimes reports path's birth time where the platform exposes one,
// falling back to its modification time otherwise.
func fileTimes(path string) (string, error) {
	t, err := times.Stat(path)
	if err != nil {
		return "", err
	}
	if t.HasBirthTime() {
		return t.BirthTime().Format("2006-01-02 15:04:05"), nil
	}
	return t.ModTime().Format("2006-01-02 15:04:05"), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gimg",
	Short: "Inspect and query Garmin .img vector map files",
	Long: `gimg reads Garmin .img vector map containers: it extracts their
TYP parts, reports bounds and copyright, and runs viewport queries
against the decoded map-level/subdivision tree.`,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(typCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	detailAdjust, _ := cmd.Flags().GetInt("detail-adjust")
	typPath, _ := cmd.Flags().GetString("typ")
	lang, _ := cmd.Flags().GetString("lang")
	return config.Load(configPath, config.Config{
		DetailLevelAdjust: detailAdjust,
		DefaultTYPPath:    typPath,
		Language:          lang,
	})
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.img>",
	Short: "Show container metadata: bounds, map levels, copyright",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().Int("detail-adjust", 0, "Bias the resolved map-level bits")
	infoCmd.Flags().String("typ", "", "Default TYP style overlay")
	infoCmd.Flags().String("lang", "", "Preferred label language code")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m, err := gmap.Open(args[0], cfg)
	if err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	defer m.Close()

	stat, statErr := os.Stat(args[0])
	bounds := m.Bounds()
	fmt.Printf("File: %s\n", args[0])
	if statErr == nil {
		fmt.Printf("Size: %d bytes\n", stat.Size())
		if bt, err := fileTimes(args[0]); err == nil {
			fmt.Printf("Birth time: %s\n", bt)
		}
	}
	fmt.Printf("Bounds: N=%.6f S=%.6f E=%.6f W=%.6f (radians)\n",
		bounds.North, bounds.South, bounds.East, bounds.West)
	fmt.Printf("Map levels (bits): %v\n", m.MapLevels())
	if cr := m.Copyright(); cr != "" {
		fmt.Printf("Copyright:\n%s\n", cr)
	}
	return nil
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract <input.img> <output-dir>",
	Short: "Extract every TYP subfile out of a container",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := img.ExtractTYP(args[0], args[1])
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

// query command
var queryCmd = &cobra.Command{
	Use:   "query <input.img> <north> <south> <east> <west> <bits>",
	Short: "Run a viewport query and print the decoded feature counts",
	Long: `Runs a single query over the given viewport (radians) and map-level
bits, printing how many polygons/polylines/points/POIs were decoded.`,
	Args: cobra.ExactArgs(6),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("detail-adjust", 0, "Bias the resolved map-level bits")
	queryCmd.Flags().String("typ", "", "Default TYP style overlay")
	queryCmd.Flags().String("lang", "", "Preferred label language code")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m, err := gmap.Open(args[0], cfg)
	if err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	defer m.Close()

	var north, south, east, west float64
	var bits int
	if _, err := fmt.Sscanf(args[1], "%g", &north); err != nil {
		return fmt.Errorf("parse north: %w", err)
	}
	if _, err := fmt.Sscanf(args[2], "%g", &south); err != nil {
		return fmt.Errorf("parse south: %w", err)
	}
	if _, err := fmt.Sscanf(args[3], "%g", &east); err != nil {
		return fmt.Errorf("parse east: %w", err)
	}
	if _, err := fmt.Sscanf(args[4], "%g", &west); err != nil {
		return fmt.Errorf("parse west: %w", err)
	}
	if _, err := fmt.Sscanf(args[5], "%d", &bits); err != nil {
		return fmt.Errorf("parse bits: %w", err)
	}

	batch, err := m.Query(context.Background(), gmap.Rect{North: north, South: south, East: east, West: west}, bits)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	fmt.Printf("Polygons:  %d\n", len(batch.Polygons))
	fmt.Printf("Polylines: %d\n", len(batch.Polylines))
	fmt.Printf("Points:    %d\n", len(batch.Points))
	fmt.Printf("POIs:      %d\n", len(batch.POIs))
	if batch.Partial {
		fmt.Println("(partial: query was cancelled before completion)")
	}
	return nil
}

// typ command group: apply/export/build/inspect/validate subcommands
// live in typ.go.
var typCmd = &cobra.Command{
	Use:   "typ",
	Short: "Work with TYP style tables: apply, export, build, inspect, validate",
}

func runTyp(cmd *cobra.Command, args []string) error {
	m, err := gmap.Open(args[0], config.Default())
	if err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	defer m.Close()

	if err := m.SetTypFile(args[1]); err != nil {
		return fmt.Errorf("load TYP overlay: %w", err)
	}
	fmt.Printf("Loaded style overlay %s\n", args[1])
	return nil
}
