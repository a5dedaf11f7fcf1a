// Package export writes transformed segments to disk in the formats the web
// app and GIS tools read.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/micro2move/segment-cli/internal/segment"
)

// File names written into the output directories.
const (
	SegmentsJSONFile = "segments.json"
	RawNetworkFile   = "cycle-network-raw.geojson"
	JSDataFile       = "data-generated.js"
	GeoJSONFile      = "segments.geojson"
	ShapefileFile    = "segments.shp"
)

// marshalSegments renders segments as indented JSON. HTML characters are not
// escaped so street names survive unchanged. A nil slice renders as [].
func marshalSegments(segs []segment.Segment) ([]byte, error) {
	if segs == nil {
		segs = []segment.Segment{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(segs); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteJSON writes segments as an indented JSON array.
func WriteJSON(path string, segs []segment.Segment) error {
	data, err := marshalSegments(segs)
	if err != nil {
		return eris.Wrap(err, "export: marshal segments")
	}
	return writeFile(path, append(data, '\n'))
}

// WriteRaw saves the upstream FeatureCollection as received.
func WriteRaw(path string, raw []byte) error {
	return writeFile(path, raw)
}

// WriteJS writes the browser data module: a header comment, the SEGMENTS
// constant and a CommonJS export guard.
func WriteJS(path string, segs []segment.Segment, generated time.Time) error {
	data, err := marshalSegments(segs)
	if err != nil {
		return eris.Wrap(err, "export: marshal segments")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `/**
 * MICRO2MOVE SYDNEY - Generated Data
 *
 * Auto-generated from City of Sydney Open Data
 * Generated: %s
 * Segments: %d
 */

const SEGMENTS = %s;

// Export for use in app
if (typeof module !== 'undefined') {
  module.exports = { SEGMENTS };
}
`, generated.Format(time.RFC3339), len(segs), data)

	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
