package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/micro2move/segment-cli/internal/segment"
)

// DBF field names are limited to 10 characters.
var shapefileFields = []shp.Field{
	shp.StringField("SEG_ID", 64),
	shp.StringField("ROAD_NAME", 128),
	shp.StringField("LOCAL_AREA", 64),
	shp.StringField("FACILITY", 32),
	shp.NumberField("POP_UP", 1),
	shp.NumberField("SPEED_KMH", 3),
	shp.FloatField("COMFORT", 8, 4),
	shp.FloatField("RISK", 8, 4),
	shp.FloatField("SAFETY", 8, 4),
	shp.StringField("TAGS", 128),
}

// WriteShapefile writes segments as a POLYLINE shapefile with its .shx and
// .dbf siblings. Single-coordinate segments become one-point lines.
func WriteShapefile(path string, segs []segment.Segment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}

	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	err = writeShapes(w, segs)
	w.Close()
	if err != nil {
		return err
	}
	return fixSiblingNames(path)
}

func writeShapes(w *shp.Writer, segs []segment.Segment) error {
	if err := w.SetFields(shapefileFields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for _, s := range segs {
		points := make([]shp.Point, len(s.Coordinates))
		for i, c := range s.Coordinates {
			points[i] = shp.Point{X: c.Lng, Y: c.Lat}
		}
		row := int(w.Write(shp.NewPolyLine([][]shp.Point{points})))

		popUp := 0
		if s.IsPopUp {
			popUp = 1
		}
		attrs := []any{
			truncate(s.ID, 64),
			truncate(s.RoadName, 128),
			truncate(s.LocalArea, 64),
			string(s.FacilityType),
			popUp,
			s.SpeedEnvKmh,
			s.ComfortScore,
			s.CrashRiskScore,
			s.PerceivedSafetyScore,
			truncate(strings.Join(s.Tags, ","), 128),
		}
		for field, v := range attrs {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return eris.Wrapf(err, "export: write attribute %d of %s", field, s.ID)
			}
		}
	}
	return nil
}

// fixSiblingNames renames "segmentsdbf" and "segmentsshx" to their dotted
// names. go-shp v0.1.1 drops the dot when it derives sibling file names.
func fixSiblingNames(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{"shx", "dbf"} {
		undotted := base + ext
		if _, err := os.Stat(undotted); err != nil {
			continue
		}
		if err := os.Rename(undotted, base+"."+ext); err != nil {
			return eris.Wrapf(err, "export: rename %s", undotted)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
