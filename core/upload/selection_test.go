package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/attendance/core"
)

func TestSelection(t *testing.T) {
	sel := NewSelection()
	assert.True(t, sel.Empty())
	assert.Equal(t, []File{}, sel.Files())

	a := File{Name: "a.xlsx", Data: []byte("a")}
	b := File{Name: "b.xlsx", Data: []byte("b")}
	c := File{Name: "c.csv", Data: []byte("c")}

	sel.SetFiles([]File{a, b})
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, sel.Names())

	// a new selection replaces, never merges
	sel.SetFiles([]File{c})
	assert.Equal(t, []File{c}, sel.Files())
	assert.Equal(t, 1, sel.Len())

	// the caller's slice is not aliased
	picked := []File{a}
	sel.SetFiles(picked)
	picked[0] = b
	assert.Equal(t, []string{"a.xlsx"}, sel.Names())

	// reset is idempotent
	for i := 0; i < 3; i++ {
		sel.Reset()
		assert.True(t, sel.Empty())
		assert.Equal(t, []File{}, sel.Files())
	}
}

func TestValidate(t *testing.T) {
	limits := Limits{MaxFiles: 2, MaxFileSize: 4}
	file := func(name, data string) File { return File{Name: name, Data: []byte(data)} }

	tests := []struct {
		name    string
		files   []File
		wantErr string
	}{
		{name: "no files", wantErr: "select at least one file"},
		{name: "too many", files: []File{file("a.xlsx", "a"), file("b.xlsx", "b"), file("c.xlsx", "c")}, wantErr: "too many files selected (max 2)"},
		{name: "duplicate", files: []File{file("a.xlsx", "a"), file("a.xlsx", "b")}, wantErr: `file "a.xlsx" was selected twice`},
		{name: "extension", files: []File{file("a.pdf", "a")}, wantErr: `file "a.pdf" is not a spreadsheet (.xlsx, .xlsm, .csv)`},
		{name: "empty", files: []File{file("a.xlsx", "")}, wantErr: `file "a.xlsx" is empty`},
		{name: "too large", files: []File{file("a.XLSX", "abcde")}, wantErr: `file "a.XLSX" is too large (max 4 bytes)`},
		{name: "ok", files: []File{file("a.xlsx", "a"), file("b.csv", "b")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.files, limits, "batch-attachments")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, map[string]string{"batch-attachments": tt.wantErr}, err.(*core.ValidationError).FieldMap())
		})
	}
}

func TestInspect(t *testing.T) {
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "student_id"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "e0000001"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A3", "e0000002"))
	_, err := wb.NewSheet("Sessions")
	require.NoError(t, err)
	require.NoError(t, wb.SetCellValue("Sessions", "A1", "venue"))
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	t.Run("workbook", func(t *testing.T) {
		sum := Inspect(File{Name: "cs1010.xlsx", Data: buf.Bytes()})
		assert.Empty(t, sum.Err)
		assert.Equal(t, []Sheet{{Name: "Sheet1", Rows: 3}, {Name: "Sessions", Rows: 1}}, sum.Sheets)
		assert.EqualValues(t, buf.Len(), sum.Size)
	})

	t.Run("csv", func(t *testing.T) {
		sum := Inspect(File{Name: "managers.csv", Data: []byte("user_id,class_group_id\n1,2\n3,4\n")})
		assert.Empty(t, sum.Err)
		assert.Equal(t, []Sheet{{Name: "managers", Rows: 3}}, sum.Sheets)
	})

	t.Run("unreadable", func(t *testing.T) {
		sums := InspectAll([]File{{Name: "broken.xlsx", Data: []byte("not a zip")}})
		require.Len(t, sums, 1)
		assert.NotEmpty(t, sums[0].Err)
		assert.Nil(t, sums[0].Sheets)
	})
}
