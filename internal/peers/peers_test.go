package peers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spigell/salary-evaluator/internal/equity"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decimal10k() decimal.Decimal {
	return decimal.NewFromInt(10000)
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "peers.csv", "ID,Position Title,Hire Date,Comp Rate\n"+
		"1,Clerk,2020-01-15,\"8,000\"\n"+
		"\n"+
		"2, Clerk ,2021-03-01,12000\n"+
		"3,Analyst\n")

	rows, err := LoadFile(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "8,000", rows[0]["Comp Rate"])
	assert.Equal(t, "Clerk ", rows[1]["Position Title"])
	_, ok := rows[2]["Comp Rate"]
	assert.False(t, ok, "short rows leave trailing columns absent")
}

func TestLoadYAMLAndJSON(t *testing.T) {
	yamlPath := writeFile(t, "peers.yaml", `
- id: 1
  position_title: Clerk
  hire_date: 2020-01-15
  comp_rate: 8000
- id: 2
  position_title: Clerk
  comp_rate: 12000.50
`)
	rows, err := LoadFile(yamlPath, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 8000, rows[0]["comp_rate"])
	assert.Equal(t, "2020-01-15", rows[0]["hire_date"])

	jsonPath := writeFile(t, "peers.json", `{"items": [{"ID": "7", "Position Title": "Clerk", "Comp Rate": 9000}]}`)
	rows, err = LoadFile(jsonPath, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0]["ID"])
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]any{
		"A1": "ID", "B1": "Position Title", "C1": "Comp Rate",
		"A2": "1", "B2": "Clerk", "C2": 8000,
		"A3": "2", "B3": "Clerk", "C3": 12000,
	}
	for cell, value := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := LoadFile(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "12000", rows[1]["Comp Rate"])

	res, err := equity.Analyze(rows, "clerk", decimal10k(), equity.PolicyThirds)
	require.NoError(t, err)
	assert.Equal(t, equity.PlacementMid, res.Snapshot.Placement)

	_, err = LoadFile(path, "Missing")
	assert.Error(t, err)
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("peers.txt", "")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	rows, err := Decode(FormatCSV, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Decode(FormatJSON, []byte("  "))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = Decode(FormatJSON, []byte("{not json"))
	assert.Error(t, err)
}
