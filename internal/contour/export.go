package contour

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{
	"contour", "pixels", "area", "perimeter", "hull_area",
	"cx", "cy", "aspect_ratio", "extent",
	"w1", "w2", "w3", "w9", "w10", "m1", "m2", "m3",
	"m00", "m10", "m01", "m20", "m11", "m02", "m30", "m21", "m12", "m03",
	"mu20", "mu11", "mu02", "mu30", "mu21", "mu12", "mu03",
	"nu20", "nu11", "nu02", "nu30", "nu21", "nu12", "nu03",
}

// WriteCSV writes one semicolon separated row per contour, preceded by a
// "sep=;" hint and a header row. Reals use four decimals except the
// moments, which span too many magnitudes and use %g.
func WriteCSV(w io.Writer, metrics []Metrics) error {
	if _, err := io.WriteString(w, "sep=;\n"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i, m := range metrics {
		rec := []string{strconv.Itoa(i), strconv.Itoa(m.Pixels)}
		for _, v := range []float64{
			m.Area, m.Perimeter, m.HullArea, m.Centroid[0], m.Centroid[1],
			m.AspectRatio, m.Extent,
			m.W1, m.W2, m.W3, m.W9, m.W10, m.M1, m.M2, m.M3,
		} {
			rec = append(rec, fmt.Sprintf("%1.4f", v))
		}
		for _, v := range m.Moments.values() {
			rec = append(rec, strconv.FormatFloat(v, 'g', 8, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
