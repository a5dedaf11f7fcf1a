package export

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/segment"
)

// Formats accepted by Write.
const (
	FormatJSON      = "json"
	FormatJS        = "js"
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// Options says where and how to write a run's outputs.
type Options struct {
	// Dir receives segments.json, the raw network and the GIS formats.
	Dir string
	// JSDir receives data-generated.js. Empty means Dir.
	JSDir   string
	Formats []string
	// Generated is stamped into the JS header. Zero means now.
	Generated time.Time
}

// Write exports segs in every requested format and returns the paths
// written, in format order.
func Write(opts Options, segs []segment.Segment) ([]string, error) {
	jsDir := opts.JSDir
	if jsDir == "" {
		jsDir = opts.Dir
	}
	generated := opts.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	log := zap.L().With(zap.String("component", "export"))

	var paths []string
	for _, format := range opts.Formats {
		var (
			path string
			err  error
		)
		switch format {
		case FormatJSON:
			path = filepath.Join(opts.Dir, SegmentsJSONFile)
			err = WriteJSON(path, segs)
		case FormatJS:
			path = filepath.Join(jsDir, JSDataFile)
			err = WriteJS(path, segs, generated)
		case FormatGeoJSON:
			path = filepath.Join(opts.Dir, GeoJSONFile)
			err = WriteGeoJSON(path, segs)
		case FormatShapefile:
			path = filepath.Join(opts.Dir, ShapefileFile)
			err = WriteShapefile(path, segs)
		default:
			return paths, eris.Errorf("export: unknown format %q", format)
		}
		if err != nil {
			return paths, err
		}
		log.Info("wrote segments", zap.String("format", format), zap.String("path", path), zap.Int("segments", len(segs)))
		paths = append(paths, path)
	}
	return paths, nil
}
