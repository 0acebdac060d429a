// Package importer turns uploaded spreadsheets into account requests.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Skotchmaster/bus_pass/internal/transport"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoHeader          = errors.New("spreadsheet has no header row")
)

// Row is one spreadsheet line keyed by its raw header text.
type Row map[string]string

// Parse reads an .xlsx (first sheet) or .csv upload. The first non-empty
// line is the header; fully blank lines are dropped.
func Parse(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(r)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRows(lines)
}

func parseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return toRows(lines)
}

func toRows(lines [][]string) ([]Row, error) {
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(lines[0]))
	for i, h := range lines[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if blank(line) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" || i >= len(line) {
				continue
			}
			row[h] = strings.TrimSpace(line[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// RowsFromJSON converts decoded JSON objects into rows. Numbers keep their
// literal form when the decoder used UseNumber.
func RowsFromJSON(items []map[string]any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := make(Row, len(item))
		for k, v := range item {
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

var aliases = map[string]string{
	"email":        "email",
	"emailid":      "email",
	"emailaddress": "email",
	"mail":         "email",
	"password":     "password",
	"role":         "role",
	"name":         "name",
	"fullname":     "name",
	"studentname":  "name",
	"mobile":       "mobileNo",
	"mobileno":     "mobileNo",
	"mobilenumber": "mobileNo",
	"phone":        "mobileNo",
	"phoneno":      "mobileNo",
	"phonenumber":  "mobileNo",
	"contact":      "mobileNo",
	"age":          "age",
	"gender":       "gender",
	"sex":          "gender",
	"aadhar":       "aadhar",
	"aadhaar":      "aadhar",
	"aadar":        "aadhar",
	"aadharno":     "aadhar",
	"aadhaarno":    "aadhar",
	"aadharnumber": "aadhar",
	"course":       "course",
	"branch":       "course",
	"college":      "college",
	"collegename":  "college",
	"depo":         "depo",
	"depot":        "depo",
	"rollno":       "rollNumber",
	"rollnumber":   "rollNumber",
	"roll":         "rollNumber",
}

// canonicalKey folds case and drops anything that is not a letter or digit,
// so "Roll No.", "roll_no" and "ROLLNO" all collapse to "rollno".
func canonicalKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize maps loose column names onto account fields. Columns that map to
// nothing are returned sorted in ignored. A bad age leaves the age empty.
func Normalize(rows []Row) (out []transport.AccountRequest, ignored []string) {
	skipped := map[string]struct{}{}
	out = make([]transport.AccountRequest, 0, len(rows))

	for _, row := range rows {
		var req transport.AccountRequest
		keys := make([]string, 0, len(row))
		for raw := range row {
			keys = append(keys, raw)
		}
		sort.Strings(keys)
		for _, raw := range keys {
			v := row[raw]
			field, ok := aliases[canonicalKey(raw)]
			if !ok {
				if strings.TrimSpace(raw) != "" {
					skipped[raw] = struct{}{}
				}
				continue
			}
			assign(&req, field, strings.TrimSpace(v))
		}
		out = append(out, req)
	}

	ignored = make([]string, 0, len(skipped))
	for k := range skipped {
		ignored = append(ignored, k)
	}
	sort.Strings(ignored)
	return out, ignored
}

// assign keeps the first non-empty value, by sorted column name, when two
// columns map to the same field.
func assign(req *transport.AccountRequest, field, v string) {
	if v == "" {
		return
	}
	set := func(dst *string) {
		if *dst == "" {
			*dst = v
		}
	}
	switch field {
	case "email":
		set(&req.Email)
	case "password":
		set(&req.Password)
	case "role":
		set(&req.Role)
	case "name":
		set(&req.Name)
	case "mobileNo":
		set(&req.MobileNo)
	case "gender":
		set(&req.Gender)
	case "aadhar":
		set(&req.Aadhar)
	case "course":
		set(&req.Course)
	case "college":
		set(&req.College)
	case "depo":
		set(&req.Depo)
	case "rollNumber":
		set(&req.RollNumber)
	case "age":
		if req.Age.Value == nil {
			if n, err := transport.ParseInt(v); err == nil {
				req.Age.Value = n
			}
		}
	}
}
