package student

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ParseCSV 解析上传的CSV为数据集。列名大小写不敏感并支持模糊匹配；
// 非UTF-8内容按GBK回退解码（Excel导出常见）。
func ParseCSV(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	if !utf8.Valid(raw) {
		decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), raw)
		if err == nil {
			raw = decoded
		}
	}
	// Strip UTF-8 BOM
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)

	dataset := &Dataset{
		Columns:    make([]string, 0, len(mapping)),
		UploadedAt: time.Now(),
	}
	for _, col := range mapping {
		if col != "" {
			dataset.Columns = append(dataset.Columns, col)
		}
	}
	_, dataset.HasLabels = columnIndex(mapping, ColDropout)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		record, err := parseRow(row, mapping)
		if err != nil {
			return nil, err
		}
		dataset.Records = append(dataset.Records, record)
	}

	if len(dataset.Records) == 0 {
		return nil, fmt.Errorf("no data rows in upload")
	}
	return dataset, nil
}

// MapColumns 将实际表头映射为期望列名；未识别的列映射为空串。
func MapColumns(header []string) []string {
	expected := append(RequiredColumns(), OptionalColumns()...)
	mapping := make([]string, len(header))
	used := make(map[string]bool)

	for i, actual := range header {
		name := strings.ReplaceAll(normalizeToken(actual), " ", "_")
		for _, col := range expected {
			if used[col] {
				continue
			}
			if name == col || strings.Contains(name, col) {
				mapping[i] = col
				used[col] = true
				break
			}
		}
	}
	return mapping
}

func columnIndex(mapping []string, col string) (int, bool) {
	for i, name := range mapping {
		if name == col {
			return i, true
		}
	}
	return -1, false
}

func parseRow(row []string, mapping []string) (Record, error) {
	record := Record{
		Dropout: -1,
		Missing: make(map[string]bool),
	}

	for i, col := range mapping {
		if col == "" || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])

		switch col {
		case ColStudentID:
			record.StudentID = value
		case ColStudentName:
			record.StudentName = value
		case ColFeeStatus:
			if fee, ok := ParseFeeStatus(value); ok {
				record.FeePayment = fee
			} else {
				record.Missing[col] = true
			}
		case ColGender:
			if g, ok := ParseGender(value); ok {
				record.Gender = g
			} else {
				record.Missing[col] = true
			}
		case ColDropout:
			switch normalizeToken(value) {
			case "1", "yes", "true":
				record.Dropout = 1
			case "0", "no", "false":
				record.Dropout = 0
			default:
				record.Missing[col] = true
			}
		default:
			num, ok := parseNumeric(value)
			if !ok {
				record.Missing[col] = true
				continue
			}
			switch col {
			case ColAttendance:
				record.AttendancePct = num
			case ColTimeliness:
				record.AssignmentTimeliness = num
			case ColQuizAvg:
				record.QuizTestAvgPct = num
			case ColLMSLogins:
				record.LMSLoginsMonthly = num
			case ColOnlineHours:
				record.OnlineHoursWeekly = num
			case ColAge:
				record.Age = num
			case ColSES:
				record.SocioeconomicStatus = num
			}
		}
	}

	return record, nil
}

// parseNumeric 解析数值，容忍百分号后缀
func parseNumeric(value string) (float64, bool) {
	value = strings.TrimSuffix(strings.TrimSpace(value), "%")
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
