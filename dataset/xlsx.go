package dataset

import (
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// ReadXLSX reads one worksheet of an Excel workbook laid out like ReadCSV
// expects: a header row, then one record per row. An empty sheet name
// selects the first sheet.
func ReadXLSX(path, sheet, label string, opts ReadOptions) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: read sheet %q", sheet)
	}
	// 末尾の空行を落とす
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return fromRows(rows, label, opts)
}

// WriteXLSX writes ds to a single-sheet workbook readable by ReadXLSX.
func WriteXLSX(path string, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := append(ds.FeatureNames(), ds.LabelName())
	for j, h := range header {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.WithStack(err)
		}
	}
	for i := 0; i < ds.Len(); i++ {
		for j, col := range ds.features {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			var v interface{}
			if col.Kind == Categorical {
				v = col.Cat[i]
			} else {
				v = col.Num[i]
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.WithStack(err)
			}
		}
		if ds.HasLabels() {
			cell, _ := excelize.CoordinatesToCellName(len(header), i+2)
			if err := f.SetCellValue(sheet, cell, ds.labels[i]); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "dataset: save %s", path)
	}
	return nil
}
