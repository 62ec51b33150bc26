// Package visualization は ROC 曲線、リサンプリング分布、モデル間の差分、
// チューニングプロファイルを gonum/plot で描画します。
package visualization

import (
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// SaveOptions controls the size and resolution of a saved plot. The file
// format follows the path extension.
type SaveOptions struct {
	Width  float64
	Height float64
	Unit   string // "in", "cm", "mm" or "px"
	DPI    int    // raster resolution; also converts "px"
}

// DefaultSaveOptions is 7x5 inches at 150 DPI.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{Width: 7, Height: 5, Unit: "in", DPI: 150}
}

// Validate checks the options.
func (o SaveOptions) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.NewValidationError("size", "width and height must be positive", [2]float64{o.Width, o.Height})
	}
	if o.DPI <= 0 {
		return errors.NewValidationError("dpi", "must be positive", o.DPI)
	}
	if _, err := o.unit(); err != nil {
		return err
	}
	return nil
}

func (o SaveOptions) unit() (vg.Length, error) {
	switch o.Unit {
	case "", "in":
		return vg.Inch, nil
	case "cm":
		return vg.Centimeter, nil
	case "mm":
		return vg.Millimeter, nil
	case "px":
		return vg.Inch / vg.Length(o.DPI), nil
	}
	return 0, errors.NewValidationError("unit", "must be one of in, cm, mm, px", o.Unit)
}

var formats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"svg": true, "pdf": true, "eps": true,
}

func save(p *plot.Plot, path string, o SaveOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return errors.NewValidationError("path", "unsupported plot format", ext)
	}
	u, _ := o.unit()
	w, h := vg.Length(o.Width)*u, vg.Length(o.Height)*u

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create plot directory")
		}
	}
	if ext != "png" {
		return errors.Wrapf(p.Save(w, h, path), "save %s", path)
	}

	// png は DPI を反映させるため vgimg で直接描画する
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(o.DPI))
	p.Draw(draw.New(c))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
