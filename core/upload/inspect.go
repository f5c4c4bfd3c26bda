package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/attendance/core"
)

// Extensions accepted by the API's spreadsheet parser.
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

var (
	ErrNoFiles       = errors.New("select at least one file")
	errTooManyFiles  = "too many files selected (max %d)"
	errDuplicateName = "file %q was selected twice"
	errTooLarge      = "file %q is too large (max %d bytes)"
	errEmptyFile     = "file %q is empty"
	errExtension     = "file %q is not a spreadsheet (%s)"
)

// Limits bound what a selection may contain. Zero values mean no limit.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// Validate rejects a selection that cannot be uploaded, before any network call.
// field names the form field the errors are reported against.
func Validate(files []File, limits Limits, field string) error {
	if len(files) == 0 {
		return core.NewValidationError(ErrNoFiles, core.FieldError{Field: field, Error: ErrNoFiles.Error()})
	}
	fail := func(format string, args ...interface{}) error {
		msg := fmt.Sprintf(format, args...)
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
	}

	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return fail(errTooManyFiles, limits.MaxFiles)
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Name] {
			return fail(errDuplicateName, f.Name)
		}
		seen[f.Name] = true

		if !hasExtension(f.Name) {
			return fail(errExtension, f.Name, strings.Join(Extensions, ", "))
		}
		if f.Size() == 0 {
			return fail(errEmptyFile, f.Name)
		}
		if limits.MaxFileSize > 0 && f.Size() > limits.MaxFileSize {
			return fail(errTooLarge, f.Name, limits.MaxFileSize)
		}
	}
	return nil
}

func hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Sheet summarises one sheet of a picked spreadsheet.
type Sheet struct {
	Name string
	Rows int
}

// Summary is what the selection table shows for a picked file.
type Summary struct {
	Name   string
	Size   int64
	Sheets []Sheet
	Err    string // set when the file could not be read
}

// Inspect reads a picked file locally and summarises its sheets.
// Unreadable files are reported in Summary.Err rather than failing the selection.
func Inspect(f File) Summary {
	sum := Summary{Name: f.Name, Size: f.Size()}

	var err error
	if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
		sum.Sheets, err = inspectCSV(bytes.NewReader(f.Data), f.Name)
	} else {
		sum.Sheets, err = inspectWorkbook(bytes.NewReader(f.Data))
	}
	if err != nil {
		sum.Err = err.Error()
	}
	return sum
}

// InspectAll summarises every file of a selection.
func InspectAll(files []File) []Summary {
	sums := make([]Summary, 0, len(files))
	for _, f := range files {
		sums = append(sums, Inspect(f))
	}
	return sums
}

func inspectWorkbook(r io.Reader) ([]Sheet, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = wb.Close() }()

	names := wb.GetSheetList()
	if len(names) == 0 {
		return nil, errors.New("workbook does not contain any sheets")
	}
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading sheet %s", name)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: len(rows)})
	}
	return sheets, nil
}

func inspectCSV(r io.Reader, name string) ([]Sheet, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	records, err := rdr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}
	return []Sheet{{Name: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), Rows: len(records)}}, nil
}
