package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"Portfolio/internal/constants"
	"Portfolio/internal/models"
)

func TestBuildDealsWorkbook(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	deals := []models.Deal{
		{
			ID: "d-2", SessionID: "s2", Status: constants.DEAL_STATUS_CLOSED, CreatedAt: created,
			UserInfo:       models.UserInfo{Name: "Sam", Email: "sam@x.com", Phone: "+15550100"},
			ProjectDetails: "Shop", Budget: "5k", Notes: models.NewNullString("signed"),
			ClosedAt: models.NewNullTime(created.Add(48 * time.Hour)),
		},
		{
			ID: "d-1", SessionID: "s1", Status: constants.DEAL_STATUS_OPEN, CreatedAt: created.Add(-time.Hour),
			UserInfo: models.UserInfo{Name: "Jane", Email: "jane@x.com"}, ProjectDetails: constants.DefaultProjectDetails,
		},
	}

	data, err := BuildDealsWorkbook(deals)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DealsSheet}, f.GetSheetList())
	rows, err := f.GetRows(DealsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, dealHeaders, rows[0])
	assert.Equal(t, "d-2", rows[1][0])
	assert.Equal(t, "2024-05-01 09:30", rows[1][1])
	assert.Equal(t, "Closed", rows[1][2])
	assert.Equal(t, "signed", rows[1][9])
	assert.Equal(t, "2024-05-03 09:30", rows[1][10])
	assert.Equal(t, "d-1", rows[2][0])
	assert.Equal(t, "Open", rows[2][2])
}

func TestBuildDealsWorkbookEmpty(t *testing.T) {
	data, err := BuildDealsWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(DealsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDealsFilename(t *testing.T) {
	assert.Equal(t, "deals_report_20240501_093000.xlsx", DealsFilename(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
}
