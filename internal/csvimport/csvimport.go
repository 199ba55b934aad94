// Package csvimport validates employee CSV files before they are forwarded to
// the API, so that a bad file is reported line by line instead of failing
// as a whole upstream.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Columns is the required header, in order.
var Columns = []string{"first_name", "last_name", "employee_number", "group_name", "location_name"}

var (
	ErrUnsupportedFormat = errors.New("csvimport: unsupported file format")
	ErrEmpty             = errors.New("csvimport: empty file")
	ErrHeader            = errors.New("csvimport: unexpected header")
	ErrInvalidRows       = errors.New("csvimport: invalid rows")
)

// Row is one employee record.
type Row struct {
	FirstName      string `csv:"first_name" validate:"required,max=64"`
	LastName       string `csv:"last_name" validate:"required,max=64"`
	EmployeeNumber int    `csv:"employee_number" validate:"gt=0"`
	GroupName      string `csv:"group_name" validate:"required,max=64"`
	LocationName   string `csv:"location_name" validate:"required,max=64"`
}

// RowError points at a problem in the file. Line is 1-based and counts the header.
type RowError struct {
	Line    int
	Field   string
	Message string
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Zeile %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("Zeile %d, %s: %s", e.Line, e.Field, e.Message)
}

// ValidationError collects every RowError of a file.
type ValidationError struct {
	Errors []RowError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("csvimport: %d invalid rows", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRows }

// Report is the outcome of validating a file.
type Report struct {
	Separator rune
	Rows      []Row
	Errors    []RowError
}

// Valid reports whether the file can be uploaded.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// Validator checks employee files.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("csv")
	})
	return &Validator{validate: v}
}

// CheckFilename rejects files that do not carry a .csv extension.
func CheckFilename(filename string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	return nil
}

// Validate parses data and checks every row. A file with row problems returns
// the full report together with a *ValidationError.
func (v *Validator) Validate(filename string, data []byte) (Report, error) {
	if err := CheckFilename(filename); err != nil {
		return Report{}, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return Report{}, ErrEmpty
	}

	report := Report{Separator: detectSeparator(data)}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = report.Separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	if err := checkHeader(header); err != nil {
		return Report{}, err
	}

	seen := make(map[int]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Errors = append(report.Errors, RowError{Line: parseErr.Line, Message: parseErr.Err.Error()})
			} else {
				report.Errors = append(report.Errors, RowError{Message: err.Error()})
			}
			break
		}
		line, _ := reader.FieldPos(0)
		row, rowErrs := v.row(line, record)
		if len(rowErrs) > 0 {
			report.Errors = append(report.Errors, rowErrs...)
			continue
		}
		if first, dup := seen[row.EmployeeNumber]; dup {
			report.Errors = append(report.Errors, RowError{
				Line:    line,
				Field:   "employee_number",
				Message: fmt.Sprintf("Personalnummer %d bereits in Zeile %d vergeben", row.EmployeeNumber, first),
			})
			continue
		}
		seen[row.EmployeeNumber] = line
		report.Rows = append(report.Rows, row)
	}

	if len(report.Rows) == 0 && len(report.Errors) == 0 {
		return report, ErrEmpty
	}
	if len(report.Errors) > 0 {
		return report, &ValidationError{Errors: report.Errors}
	}
	return report, nil
}

func (v *Validator) row(line int, record []string) (Row, []RowError) {
	if len(record) != len(Columns) {
		return Row{}, []RowError{{
			Line:    line,
			Message: fmt.Sprintf("%d Spalten erwartet, %d gefunden", len(Columns), len(record)),
		}}
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	row := Row{
		FirstName:    record[0],
		LastName:     record[1],
		GroupName:    record[3],
		LocationName: record[4],
	}
	var errs []RowError
	numberReported := true
	switch n, err := strconv.Atoi(record[2]); {
	case record[2] == "":
		errs = append(errs, RowError{Line: line, Field: "employee_number", Message: "fehlt"})
	case err != nil:
		errs = append(errs, RowError{Line: line, Field: "employee_number", Message: "keine ganze Zahl"})
	default:
		row.EmployeeNumber = n
		numberReported = false
	}
	if err := v.validate.Struct(row); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Field() == "employee_number" && numberReported {
					continue
				}
				errs = append(errs, RowError{Line: line, Field: fe.Field(), Message: message(fe)})
			}
		}
	}
	return row, errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "fehlt"
	case "max":
		return "höchstens " + fe.Param() + " Zeichen"
	case "gt":
		return "muss größer als " + fe.Param() + " sein"
	}
	return "ungültig"
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("%w: want %s", ErrHeader, strings.Join(Columns, ","))
	}
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) != Columns[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeader, i+1, col, Columns[i])
		}
	}
	return nil
}

// detectSeparator picks ';' when the header line uses it more often than ','.
func detectSeparator(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}
