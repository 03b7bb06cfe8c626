// Package img extracts named subfile parts out of a Garmin .img
// container to standalone files, the narrow slice of container parsing
// the TYP conversion tools need.
package img

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/xattr"

	"github.com/kiozen/gmapimg/internal/container"
)

// sourceSubfileXattr is the extended attribute name an extracted TYP
// file is tagged with, recording which subfile it came from. Tagging is
// best-effort: xattrs are routinely unsupported (tmpfs without
// user_xattr, some network filesystems, non-unix platforms), so a
// failure here is silently ignored rather than failing the extraction.
const sourceSubfileXattr = "user.gmap.subfile"

// ExtractTYP extracts every "TYP" part found in imgPath's FAT directory
// into outputDir, one file per subfile named "<subfile>.typ". Returns
// the list of written paths.
func ExtractTYP(imgPath string, outputDir string) ([]string, error) {
	c, err := container.Open(imgPath)
	if err != nil {
		return nil, fmt.Errorf("open img file: %w", err)
	}
	defer c.Close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	data := c.Window.Bytes()
	var extracted []string
	for _, sf := range c.Subfiles {
		part, ok := sf.Parts["TYP"]
		if !ok {
			continue
		}
		if part.Offset < 0 || part.Size < 0 || part.Offset+part.Size > int64(len(data)) {
			return nil, fmt.Errorf("TYP part %s out of bounds", sf.Name)
		}
		typData := data[part.Offset : part.Offset+part.Size]

		outputPath := filepath.Join(outputDir, sf.Name+".typ")
		outFile, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("create output file %s: %w", outputPath, err)
		}
		if _, err := io.Copy(outFile, bytes.NewReader(typData)); err != nil {
			outFile.Close()
			return nil, fmt.Errorf("write TYP file %s: %w", outputPath, err)
		}
		outFile.Close()
		_ = xattr.Set(outputPath, sourceSubfileXattr, []byte(sf.Name))

		extracted = append(extracted, outputPath)
	}

	if len(extracted) == 0 {
		return nil, fmt.Errorf("no TYP files found in %s", imgPath)
	}
	return extracted, nil
}
