package attendance

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/makazi/core"
)

var exportHeader = []string{"Code", "Block", "Room", "Day", "Status", "Marked By"}

// ExportDay renders a block's attendance for one day as an XLSX workbook.
func (svc *Service) ExportDay(block, day string) ([]byte, error) {
	if _, err := core.ParseDay(day); err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "day", Error: "invalid date"})
	}

	records, err := svc.Query(&QueryFilter{Block: block, Day: day}, nil)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Attendance"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err = f.SetCellValue(sheet, cell, h); err != nil {
			return nil, errors.Wrap(err, "writing header")
		}
	}
	for i, rec := range records {
		row := i + 2
		values := []interface{}{
			rec.StudentCode,
			rec.Block,
			rec.RoomNumber,
			rec.Day.Format(core.DateFormat),
			rec.Status,
			rec.MarkedBy,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err = f.SetCellValue(sheet, cell, v); err != nil {
				return nil, errors.Wrapf(err, "writing row %d", row)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("rendering attendance sheet for block %s", block))
	}
	return buf.Bytes(), nil
}
