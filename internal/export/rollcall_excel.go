package export

import (
	"bytes"
	"fmt"

	"wisefido-rollcall/internal/domain"

	"github.com/xuri/excelize/v2"
)

// RollCallSheetHeader 点名清单表头
var RollCallSheetHeader = []string{
	"Order",
	"Location",
	"Type",
	"Building",
	"Floor",
	"Expected",
	"Occupants",
	"Checked",
}

// GenerateRollCallSheet 生成点名清单 Excel 文件（执勤人员纸质备份）
// 每个停靠点一行，人员按优先级降序展开为编号列表
func GenerateRollCallSheet(result *domain.GeneratedRollCall) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 之前不能 Close

	sheetName := "Roll Call"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range RollCallSheetHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, stop := range result.Stops {
		occupants := ""
		for i, occ := range stop.Occupants {
			if i > 0 {
				occupants += ", "
			}
			occupants += occ.OccupantNumber
		}

		row := rowIdx + 2
		values := []any{
			stop.VisitOrder,
			stop.LocationName,
			string(stop.LocationType),
			stop.Building,
			stop.Floor,
			stop.ExpectedCount,
			occupants,
			"", // 现场勾选列
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	// 汇总行
	summaryRow := len(result.Stops) + 3
	summary := fmt.Sprintf("Units: %d  Occupied: %d  Empty: %d  Expected: %d  Est. duration: %ds",
		result.Totals.TotalLocations,
		result.Totals.OccupiedLocations,
		result.Totals.EmptyLocations,
		result.Totals.TotalExpectedOccupants,
		result.EstimatedDurationSeconds,
	)
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	if err := f.SetCellValue(sheetName, cell, summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set summary: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel: %w", err)
	}

	return buf.Bytes(), nil
}
