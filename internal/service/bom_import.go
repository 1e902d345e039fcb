package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 导入模板列，按表头名称匹配，顺序无关
var bomImportHeaders = []string{
	"component_id", "component_code", "quantity", "unit_of_measure", "position",
	"scrap_rate", "is_optional", "is_sub_assembly", "operation", "unit_cost", "notes",
}

// ImportRowError 导入失败的行
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult 导入结果
type ImportResult struct {
	Imported  int              `json:"imported"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors"`
	TotalCost decimal.Decimal  `json:"total_cost"`
}

// ImportItems 从Excel第一个工作表导入BOM行项
// 每行按AddItem规则校验并单独提交，失败行记入Errors，成功行保留
func (s *BOMService) ImportItems(ctx context.Context, bomID string, f *excelize.File) (*ImportResult, error) {
	if _, err := s.repos.BOM.GetHeader(ctx, bomID); err != nil {
		return nil, lookupError(err, "bom", bomID)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	return s.importRows(ctx, bomID, rows)
}

// ImportItemsCSV 从CSV导入BOM行项，encoding为gbk时先转码
// 表头与行规则同Excel导入
func (s *BOMService) ImportItemsCSV(ctx context.Context, bomID string, r io.Reader, encoding string) (*ImportResult, error) {
	if _, err := s.repos.BOM.GetHeader(ctx, bomID); err != nil {
		return nil, lookupError(err, "bom", bomID)
	}

	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "gbk", "gb18030":
		r = transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder())
	default:
		return nil, NewValidationError("encoding", "must be utf-8 or gbk")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, NewValidationError("file", "malformed csv: "+err.Error())
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return s.importRows(ctx, bomID, rows)
}

func (s *BOMService) importRows(ctx context.Context, bomID string, rows [][]string) (*ImportResult, error) {
	result := &ImportResult{Errors: []ImportRowError{}}
	if len(rows) == 0 {
		return nil, NewValidationError("file", "file has no header row")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	_, hasID := cols["component_id"]
	_, hasCode := cols["component_code"]
	verr := &ValidationError{}
	if !hasID && !hasCode {
		verr.Add("file", "missing column component_id or component_code")
	}
	for _, required := range []string{"quantity", "unit_of_measure"} {
		if _, ok := cols[required]; !ok {
			verr.Add("file", "missing column "+required)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.Join(row, "") == "" {
			continue
		}

		req, rowErr := s.parseImportRow(ctx, cell)
		if rowErr == nil {
			_, err := s.AddItem(ctx, bomID, req)
			rowErr = err
		}
		if rowErr != nil {
			var verr *ValidationError
			if !errors.As(rowErr, &verr) {
				return nil, fmt.Errorf("import row %d: %w", rowNum, rowErr)
			}
			result.Failed++
			for _, fe := range verr.Errors {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: fe.Field, Message: fe.Message})
			}
			continue
		}
		result.Imported++
	}

	bom, err := s.repos.BOM.GetHeader(ctx, bomID)
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	result.TotalCost = bom.TotalCost

	s.logger.Info("BOM items imported",
		zap.String("bom_id", bomID),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *BOMService) parseImportRow(ctx context.Context, cell func(string) string) (*AddBOMItemRequest, error) {
	verr := &ValidationError{}
	req := &AddBOMItemRequest{
		ComponentID:   cell("component_id"),
		UnitOfMeasure: cell("unit_of_measure"),
		Operation:     cell("operation"),
		Notes:         cell("notes"),
		IsOptional:    parseBoolCell(cell("is_optional")),
		IsSubAssembly: parseBoolCell(cell("is_sub_assembly")),
	}

	if req.ComponentID == "" {
		if code := cell("component_code"); code != "" {
			p, err := s.repos.Product.FindByCode(ctx, code)
			switch {
			case err == nil:
				req.ComponentID = p.ID
			case errors.Is(err, repository.ErrNotFound):
				verr.Add("component_code", "unknown product code "+code)
			default:
				return nil, fmt.Errorf("get product by code: %w", err)
			}
		}
	}

	if q, err := decimal.NewFromString(cell("quantity")); err == nil {
		req.Quantity = q
	} else {
		verr.Add("quantity", "must be a number")
	}
	if v := cell("scrap_rate"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			req.ScrapRate = d
		} else {
			verr.Add("scrap_rate", "must be a number")
		}
	}
	if v := cell("unit_cost"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			req.UnitCost = &d
		} else {
			verr.Add("unit_cost", "must be a number")
		}
	}
	if v := cell("position"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Position = &n
		} else {
			verr.Add("position", "must be an integer")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return req, nil
}

func parseBoolCell(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "是":
		return true
	}
	return false
}

// GenerateImportTemplate 生成BOM行项导入模板
func (s *BOMService) GenerateImportTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "BOM Items"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range bomImportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
		f.SetColWidth(sheet, col, col, 16)
	}
	return f, nil
}
