package directory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRosterPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderRosterPDF(&buf, []EmployeeView{
		{ID: "m", EmployeeName: "Manager", PhoneNumber: "1", Email: "m@example.com"},
		{ID: "r", EmployeeName: "Report", PhoneNumber: "2", Email: "r@example.com", ReportsTo: "m"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportRosterEmptyDirectory(t *testing.T) {
	svc, _, _ := newTestService(t)
	var buf bytes.Buffer
	require.NoError(t, svc.ExportRoster(context.Background(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
