// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/earthview/globe/pkg/core"
)

// ExportVersion is written into every export.
const ExportVersion = 1

// Export is the root JSON structure
type Export struct {
	Version    int              `json:"version"`
	Viewpoints []core.Viewpoint `json:"viewpoints"`
	Lookups    []LookupJSON     `json:"lookups"`
}

// LookupJSON is one location lookup in the export
type LookupJSON struct {
	ID         uint                `json:"id"`
	SessionID  string              `json:"sessionId"`
	Time       string              `json:"time"`
	Lat        float64             `json:"lat"`
	Lon        float64             `json:"lon"`
	Source     core.LocationSource `json:"source"`
	DurationMs int64               `json:"durationMs"`
}

func (b *Backend) exportPath() string {
	name := "viewpoints.json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return filepath.Join(b.cfg.OutputDir, name)
}

// exportJSON writes the data to a JSON file, gzipped when configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()
	outputPath := b.exportPath()

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() Export {
	export := Export{
		Version:    ExportVersion,
		Viewpoints: b.sortedViewpoints(),
		Lookups:    make([]LookupJSON, 0, len(b.lookups)),
	}
	for _, rec := range b.lookups {
		export.Lookups = append(export.Lookups, LookupJSON{
			ID:         rec.ID,
			SessionID:  rec.SessionID,
			Time:       rec.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Lat:        rec.Location.Lat,
			Lon:        rec.Location.Lon,
			Source:     rec.Location.Source,
			DurationMs: rec.Duration.Milliseconds(),
		})
	}
	return export
}

// importJSON restores viewpoints from a previous export. Lookups are not
// restored; they are only kept for offline analysis.
func (b *Backend) importJSON() error {
	export, err := ReadExport(b.exportPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, v := range export.Viewpoints {
		b.viewpoints[v.Name] = v
		if v.ID > b.idCounter {
			b.idCounter = v.ID
		}
	}
	return nil
}

// ReadExport loads an export file. Files ending in .gz are decompressed.
func ReadExport(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Export{}, fmt.Errorf("failed to open gzip export: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("failed to decode export %s: %w", path, err)
	}
	if export.Version != ExportVersion {
		return Export{}, fmt.Errorf("unsupported export version %d", export.Version)
	}
	return export, nil
}

func (b *Backend) writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
