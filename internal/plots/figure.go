// Package plots draws expense charts with gonum/plot and writes them as PNG
// files or SVG streams.
package plots

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure is a chart ready to be encoded. format is a gonum image format
// such as "png" or "svg".
type Figure interface {
	Render(w io.Writer, format string) error
}

type single struct {
	p    *plot.Plot
	w, h vg.Length
}

func (s single) Render(w io.Writer, format string) error {
	wt, err := s.p.WriterTo(s.w, s.h, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// grid lays out one plot per facet, wrapping after cols plots. Unused cells
// of the last row are left blank.
type grid struct {
	plots [][]*plot.Plot
	w, h  vg.Length
}

func newGrid(facets []*plot.Plot, cols int, cellW, cellH vg.Length) grid {
	if cols < 1 {
		cols = 1
	}
	if len(facets) < cols {
		cols = max(len(facets), 1)
	}
	rows := (len(facets) + cols - 1) / cols
	if rows == 0 {
		rows = 1
	}
	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			if k := j*cols + i; k < len(facets) {
				plots[j][i] = facets[k]
				continue
			}
			blank := plot.New()
			blank.HideAxes()
			plots[j][i] = blank
		}
	}
	return grid{plots: plots, w: cellW * vg.Length(cols), h: cellH * vg.Length(rows)}
}

func (g grid) Render(w io.Writer, format string) error {
	c, err := draw.NewFormattedCanvas(g.w, g.h, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	tiles := draw.Tiles{
		Rows:      len(g.plots),
		Cols:      len(g.plots[0]),
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(g.plots, tiles, draw.New(c))
	for j := range g.plots {
		for i, p := range g.plots[j] {
			p.Draw(canvases[j][i])
		}
	}
	_, err = c.WriteTo(w)
	return err
}

// Save writes fig to path, creating parent directories. The format follows
// the file extension.
func Save(fig Figure, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("no image format in %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fig.Render(f, format); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
