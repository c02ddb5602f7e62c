package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rtupulse/pkg/contracts/domain"
)

var testKPIs = []domain.UnitKPI{
	{Site: "BLD02", Unit: "RTU 1", CoolingRatio: 2.4, HeatingRatio: -1.1, NominalFlow: 9600},
	{Site: "BLD01", Unit: "RTU 2", CoolingRatio: 3.05, HeatingRatio: 0, NominalFlow: 8400},
	{Site: "BLD01", Unit: "RTU 1", CoolingRatio: 1.75, HeatingRatio: -0.5, NominalFlow: 9600},
}

func TestResultsWriter_WriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "rtu_efficiency_summary.csv")

	require.NoError(t, NewResultsWriter(nil).WriteCSV(path, testKPIs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// BOM so Excel opens the file as UTF-8.
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])

	want := "Site,Unit,CoolingRatio,HeatingRatio,NominalFlow\n" +
		"BLD01,RTU 1,1.750,-0.500,9600.000\n" +
		"BLD01,RTU 2,3.050,0.000,8400.000\n" +
		"BLD02,RTU 1,2.400,-1.100,9600.000\n"
	assert.Equal(t, want, string(data[3:]))
}

func TestResultsWriter_WriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "rtu_efficiency_summary.xlsx")

	require.NoError(t, NewResultsWriter(nil).WriteWorkbook(path, testKPIs))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Efficiency")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Site", "Unit", "CoolingRatio", "HeatingRatio", "NominalFlow"}, rows[0])
	// Sorted by site then unit regardless of input order.
	assert.Equal(t, "BLD01", rows[1][0])
	assert.Equal(t, "RTU 1", rows[1][1])
	assert.Equal(t, "BLD02", rows[3][0])
}

func TestResultsWriter_EmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtu_efficiency_summary.csv")

	require.NoError(t, NewResultsWriter(nil).WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Site,Unit,CoolingRatio,HeatingRatio,NominalFlow\n", string(data[3:]))
}

func TestSortKPIs_DoesNotMutateInput(t *testing.T) {
	original := make([]domain.UnitKPI, len(testKPIs))
	copy(original, testKPIs)

	sorted := sortKPIs(testKPIs)

	assert.Equal(t, original, testKPIs)
	assert.Equal(t, "BLD01", sorted[0].Site)
	assert.Equal(t, "RTU 1", sorted[0].Unit)
}
