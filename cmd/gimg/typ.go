package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kiozen/gmapimg/internal/model"
	"github.com/kiozen/gmapimg/pkg/typconv"
	"github.com/spf13/cobra"
)

// typCmd's subcommands give gimg a full TYP-authoring surface (export
// to text/JSON, build from text, inspect, validate) alongside the
// overlay-loading "apply" action, so style tables never need a second,
// unrelated binary.
func init() {
	typCmd.AddCommand(typApplyCmd)
	typCmd.AddCommand(typExportCmd)
	typCmd.AddCommand(typBuildCmd)
	typCmd.AddCommand(typInspectCmd)
	typCmd.AddCommand(typValidateCmd)
}

// apply subcommand — loads a TYP overlay onto a map's style table.
var typApplyCmd = &cobra.Command{
	Use:   "apply <input.img> <style.typ>",
	Short: "Load a TYP overlay onto a map and confirm that it loaded",
	Args:  cobra.ExactArgs(2),
	RunE:  runTyp,
}

// export subcommand — binary TYP to mkgmap text or JSON.
var typExportCmd = &cobra.Command{
	Use:   "export <input.typ>",
	Short: "Convert a binary TYP style table to mkgmap text or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypExport,
}

func init() {
	typExportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	typExportCmd.Flags().String("format", "mkgmap", "Output format: mkgmap, json")
	typExportCmd.Flags().Bool("no-xpm", false, "Skip XPM bitmap/pattern data")
	typExportCmd.Flags().Bool("no-labels", false, "Skip multilingual label strings")
}

func runTypExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	noXPM, _ := cmd.Flags().GetBool("no-xpm")
	noLabels, _ := cmd.Flags().GetBool("no-labels")
	outputPath, _ := cmd.Flags().GetString("output")

	typ, err := readBinaryTYP(args[0])
	if err != nil {
		return err
	}
	if noXPM {
		stripTypBitmaps(typ)
	}
	if noLabels {
		stripTypLabels(typ)
	}

	output := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	switch format {
	case "mkgmap":
		return typconv.WriteTextTYP(output, typ)
	case "json":
		return writeTypJSON(output, typ, typJSONSummary{})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func stripTypBitmaps(typ *model.TYPFile) {
	for i := range typ.Points {
		typ.Points[i].DayIcon = nil
		typ.Points[i].NightIcon = nil
	}
	for i := range typ.Lines {
		typ.Lines[i].DayPattern = nil
		typ.Lines[i].NightPattern = nil
	}
	for i := range typ.Polygons {
		typ.Polygons[i].DayPattern = nil
		typ.Polygons[i].NightPattern = nil
	}
}

func stripTypLabels(typ *model.TYPFile) {
	for i := range typ.Points {
		typ.Points[i].Labels = make(map[string]string)
	}
	for i := range typ.Lines {
		typ.Lines[i].Labels = make(map[string]string)
	}
	for i := range typ.Polygons {
		typ.Polygons[i].Labels = make(map[string]string)
	}
}

// build subcommand — mkgmap text to binary TYP.
var typBuildCmd = &cobra.Command{
	Use:   "build <input.txt>",
	Short: "Convert mkgmap text format to a binary TYP style table",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypBuild,
}

func init() {
	typBuildCmd.Flags().StringP("output", "o", "", "Output file (required)")
	typBuildCmd.MarkFlagRequired("output")
	typBuildCmd.Flags().Int("fid", 0, "Override Family ID")
	typBuildCmd.Flags().Int("pid", 0, "Override Product ID")
	typBuildCmd.Flags().Int("codepage", 1252, "Character encoding")
}

func runTypBuild(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	fid, _ := cmd.Flags().GetInt("fid")
	pid, _ := cmd.Flags().GetInt("pid")
	codepage, _ := cmd.Flags().GetInt("codepage")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	typ, err := typconv.ParseTextTYP(f)
	if err != nil {
		return fmt.Errorf("parse text TYP: %w", err)
	}

	if fid != 0 {
		typ.Header.FID = fid
	}
	if pid != 0 {
		typ.Header.PID = pid
	}
	switch {
	case codepage != 0 && codepage != 1252:
		typ.Header.CodePage = codepage
	case typ.Header.CodePage == 0:
		typ.Header.CodePage = 1252
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := typconv.WriteBinaryTYP(out, typ); err != nil {
		return fmt.Errorf("write binary TYP: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Built %s from %s\n", outputPath, args[0])
	fmt.Fprintf(os.Stderr, "  CodePage: %d, FID: %d, PID: %d\n", typ.Header.CodePage, typ.Header.FID, typ.Header.PID)
	fmt.Fprintf(os.Stderr, "  Points: %d, Lines: %d, Polygons: %d\n",
		len(typ.Points), len(typ.Lines), len(typ.Polygons))
	return nil
}

// inspect subcommand — TYP metadata and counts.
var typInspectCmd = &cobra.Command{
	Use:   "inspect <input.typ>",
	Short: "Show a TYP style table's header, feature counts, and types",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypInspect,
}

func init() {
	typInspectCmd.Flags().Bool("json", false, "Output as JSON")
	typInspectCmd.Flags().Bool("brief", false, "Show only summary counts")
}

func runTypInspect(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	typ, err := readBinaryTYP(args[0])
	if err != nil {
		return err
	}
	size, err := fileSize(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeTypJSON(os.Stdout, typ, typJSONSummary{path: args[0], fileSize: size})
	}
	return printTypInspection(args[0], typ, size, brief)
}

func printTypInspection(path string, typ *model.TYPFile, fileSize int64, brief bool) error {
	if brief {
		fmt.Printf("%s: FID=%d PID=%d CP=%d Points=%d Lines=%d Polygons=%d\n",
			path, typ.Header.FID, typ.Header.PID, typ.Header.CodePage,
			len(typ.Points), len(typ.Lines), len(typ.Polygons))
		return nil
	}

	fmt.Printf("TYP style table: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
	fmt.Println("Header:")
	fmt.Printf("  Family ID (FID):  %d\n", typ.Header.FID)
	fmt.Printf("  Product ID (PID): %d\n", typ.Header.PID)
	fmt.Printf("  CodePage:         %d (%s)\n", typ.Header.CodePage, codePageName(typ.Header.CodePage))
	fmt.Println()
	fmt.Println("Feature Types:")
	fmt.Printf("  Points:           %d\n", len(typ.Points))
	fmt.Printf("  Lines:            %d\n", len(typ.Lines))
	fmt.Printf("  Polygons:         %d\n", len(typ.Polygons))
	fmt.Println()
	fmt.Printf("File size: %s (%d bytes)\n", formatByteSize(fileSize), fileSize)

	printTypeList := func(title string, n int, print func(i int)) {
		if n == 0 || n > 20 {
			return
		}
		fmt.Println()
		fmt.Println(title + ":")
		for i := 0; i < n; i++ {
			print(i)
		}
	}
	printTypeList("Point Types", len(typ.Points), func(i int) {
		pt := typ.Points[i]
		fmt.Printf("  0x%04x%s%s\n", pt.Type, subtypeSuffix(pt.SubType), firstLabelSuffix(pt.Labels))
	})
	printTypeList("Line Types", len(typ.Lines), func(i int) {
		lt := typ.Lines[i]
		fmt.Printf("  0x%04x%s%s\n", lt.Type, subtypeSuffix(lt.SubType), firstLabelSuffix(lt.Labels))
	})
	printTypeList("Polygon Types", len(typ.Polygons), func(i int) {
		poly := typ.Polygons[i]
		fmt.Printf("  0x%04x%s%s\n", poly.Type, subtypeSuffix(poly.SubType), firstLabelSuffix(poly.Labels))
	})
	return nil
}

func subtypeSuffix(subType int) string {
	if subType > 0 {
		return fmt.Sprintf(" (subtype 0x%x)", subType)
	}
	return ""
}

func firstLabelSuffix(labels map[string]string) string {
	for _, l := range labels {
		return " - " + l
	}
	return ""
}

func codePageName(cp int) string {
	switch cp {
	case 1252:
		return "Windows-1252 (Western European)"
	case 1250:
		return "Windows-1250 (Central European)"
	case 1251:
		return "Windows-1251 (Cyrillic)"
	case 1254:
		return "Windows-1254 (Turkish)"
	case 437:
		return "CP437 (IBM PC)"
	case 65001:
		return "UTF-8"
	default:
		return "Unknown"
	}
}

func formatByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// validate subcommand — structural checks over a parsed TYP file.
var typValidateCmd = &cobra.Command{
	Use:   "validate <input.typ>",
	Short: "Check a TYP style table for structural and range errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypValidate,
}

func init() {
	typValidateCmd.Flags().Bool("strict", false, "Treat warnings as failures")
}

func runTypValidate(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")

	typ, err := readBinaryTYP(args[0])
	if err != nil {
		return err
	}

	v := &typValidator{strict: strict, file: args[0]}
	v.validateHeader(&typ.Header)
	v.validatePoints(typ.Points)
	v.validateLines(typ.Lines)
	v.validatePolygons(typ.Polygons)
	v.printResults()

	if v.hasErrors() || (strict && v.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}
	return nil
}

type typValidator struct {
	strict   bool
	errors   []string
	warnings []string
	file     string
}

func (v *typValidator) error(msg string, args ...interface{})   { v.errors = append(v.errors, fmt.Sprintf(msg, args...)) }
func (v *typValidator) warning(msg string, args ...interface{}) { v.warnings = append(v.warnings, fmt.Sprintf(msg, args...)) }
func (v *typValidator) hasErrors() bool                         { return len(v.errors) > 0 }
func (v *typValidator) hasWarnings() bool                       { return len(v.warnings) > 0 }

func (v *typValidator) validateHeader(h *model.Header) {
	validCodePages := map[int]bool{437: true, 1250: true, 1251: true, 1252: true, 1254: true, 65001: true}
	if !validCodePages[h.CodePage] {
		v.warning("unusual CodePage: %d (common values: 1252, 1250, 1251, 437)", h.CodePage)
	}
	if h.FID < 0 || h.FID > 65535 {
		v.error("invalid FID: %d (must be 0-65535)", h.FID)
	}
	if h.PID < 0 || h.PID > 65535 {
		v.error("invalid PID: %d (must be 0-65535)", h.PID)
	}
}

func (v *typValidator) validatePoints(points []model.PointType) {
	if len(points) == 0 {
		v.warning("no point types defined")
		return
	}
	seen := make(map[int]bool)
	for i, pt := range points {
		key := pt.Type<<8 | pt.SubType
		if seen[key] {
			v.warning("duplicate point type: 0x%04x (subtype 0x%x)", pt.Type, pt.SubType)
		}
		seen[key] = true
		if pt.Type < 0 || pt.Type > 0x1FFFF {
			v.error("point %d: invalid type code 0x%x", i, pt.Type)
		}
		if pt.DayIcon != nil {
			v.validateBitmap(pt.DayIcon, fmt.Sprintf("point %d day icon", i))
		}
		if pt.NightIcon != nil {
			v.validateBitmap(pt.NightIcon, fmt.Sprintf("point %d night icon", i))
		}
		if len(pt.Labels) == 0 {
			v.warning("point 0x%04x has no labels", pt.Type)
		}
	}
}

func (v *typValidator) validateLines(lines []model.LineType) {
	if len(lines) == 0 {
		v.warning("no line types defined")
		return
	}
	seen := make(map[int]bool)
	for i, lt := range lines {
		key := lt.Type<<8 | lt.SubType
		if seen[key] {
			v.warning("duplicate line type: 0x%04x (subtype 0x%x)", lt.Type, lt.SubType)
		}
		seen[key] = true
		if lt.Type < 0 || lt.Type > 0x1FFFF {
			v.error("line %d: invalid type code 0x%x", i, lt.Type)
		}
		if lt.BorderWidth > 0 && lt.LineWidth == 0 {
			v.warning("line %d: has border but no line width", i)
		}
		if lt.DayPattern != nil {
			v.validateBitmap(lt.DayPattern, fmt.Sprintf("line %d day pattern", i))
		}
		if lt.NightPattern != nil {
			v.validateBitmap(lt.NightPattern, fmt.Sprintf("line %d night pattern", i))
		}
	}
}

func (v *typValidator) validatePolygons(polygons []model.PolygonType) {
	if len(polygons) == 0 {
		v.warning("no polygon types defined")
		return
	}
	seen := make(map[int]bool)
	for i, poly := range polygons {
		key := poly.Type<<8 | poly.SubType
		if seen[key] {
			v.warning("duplicate polygon type: 0x%04x (subtype 0x%x)", poly.Type, poly.SubType)
		}
		seen[key] = true
		if poly.Type < 0 || poly.Type > 0x1FFFF {
			v.error("polygon %d: invalid type code 0x%x", i, poly.Type)
		}
		if poly.DayPattern != nil {
			v.validateBitmap(poly.DayPattern, fmt.Sprintf("polygon %d day pattern", i))
		}
		if poly.NightPattern != nil {
			v.validateBitmap(poly.NightPattern, fmt.Sprintf("polygon %d night pattern", i))
		}
	}
}

func (v *typValidator) validateBitmap(bm *model.Bitmap, context string) {
	if bm.Width <= 0 || bm.Width > 256 {
		v.error("%s: invalid width %d", context, bm.Width)
	}
	if bm.Height <= 0 || bm.Height > 256 {
		v.error("%s: invalid height %d", context, bm.Height)
	}
	if len(bm.Palette) == 0 {
		v.warning("%s: empty palette", context)
	}
	if len(bm.Palette) > 256 {
		v.error("%s: palette too large (%d colors)", context, len(bm.Palette))
	}
	if len(bm.Data) == 0 {
		v.error("%s: no pixel data", context)
	}
}

func (v *typValidator) printResults() {
	fmt.Printf("Validating: %s\n", v.file)
	fmt.Println(strings.Repeat("=", 50))
	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Println("valid: no issues found")
		return
	}
	if len(v.errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(v.errors))
		for _, e := range v.errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if len(v.warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(v.warnings))
		for _, w := range v.warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}

// shared helpers

func readBinaryTYP(path string) (*model.TYPFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input file: %w", err)
	}
	typ, err := typconv.ParseBinaryTYP(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("parse TYP file: %w", err)
	}
	return typ, nil
}

func fileSize(path string) (int64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat input file: %w", err)
	}
	return stat.Size(), nil
}

type typJSONSummary struct {
	path     string
	fileSize int64
}

// writeTypJSON serializes typ to w, sharing one JSON shape between
// "export --format=json" (no path/size context) and "inspect --json"
// (which fills in both).
func writeTypJSON(w *os.File, typ *model.TYPFile, summary typJSONSummary) error {
	doc := map[string]interface{}{
		"header": map[string]interface{}{
			"fid":      typ.Header.FID,
			"pid":      typ.Header.PID,
			"codepage": typ.Header.CodePage,
		},
		"points":   typeListToJSON(typ.Points, func(p model.PointType) (int, int, map[string]string) { return p.Type, p.SubType, p.Labels }),
		"lines":    typeListToJSON(typ.Lines, func(l model.LineType) (int, int, map[string]string) { return l.Type, l.SubType, l.Labels }),
		"polygons": typeListToJSON(typ.Polygons, func(p model.PolygonType) (int, int, map[string]string) { return p.Type, p.SubType, p.Labels }),
	}
	if summary.path != "" {
		doc["file"] = summary.path
		doc["fileSize"] = summary.fileSize
		doc["counts"] = map[string]int{
			"points":   len(typ.Points),
			"lines":    len(typ.Lines),
			"polygons": len(typ.Polygons),
			"total":    len(typ.Points) + len(typ.Lines) + len(typ.Polygons),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func typeListToJSON[T any](items []T, fields func(T) (int, int, map[string]string)) []map[string]interface{} {
	out := make([]map[string]interface{}, len(items))
	for i, item := range items {
		typ, subType, labels := fields(item)
		entry := map[string]interface{}{"type": typ, "subtype": subType}
		if len(labels) > 0 {
			entry["labels"] = labels
		}
		out[i] = entry
	}
	return out
}
