package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Day", "Start", "Course"},
		Rows: []map[string]string{
			{"Day": "MONDAY", "Start": "09:00", "Course": "algebra"},
			{"Day": "TUESDAY", "Start": "10:00", "Course": "physics"},
		},
		Widths: map[string]float64{"Course": 2},
	}
}

func TestCSVRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(payload, utf8BOM))
	body := string(bytes.TrimPrefix(payload, utf8BOM))

	assert.Contains(t, body, "\r\n", "records are CRLF terminated")
	lines := strings.Split(strings.TrimSpace(body), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,Course", lines[0])
	assert.Equal(t, "MONDAY,09:00,algebra", lines[1])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(sampleDataset())
	require.Len(t, widths, 3)

	// Day and Start carry weight 1, Course weight 2.
	assert.InDelta(t, widths[0], widths[1], 0.001)
	assert.InDelta(t, 2*widths[0], widths[2], 0.001)

	var total float64
	for _, w := range widths {
		total += w
	}
	assert.InDelta(t, pdfTableWidth, total, 0.001)
}

func TestPDFRenderPaginates(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{
			"Day": "FRIDAY", "Start": "11:00", "Course": fmt.Sprintf("course-%d", i),
		})
	}

	payload, err := NewPDFExporter().Render(data, "classroom 101 timetable")
	require.NoError(t, err)
	require.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))

	// 82 rows at 7mm cannot fit one landscape page
	small, err := NewPDFExporter().Render(sampleDataset(), "classroom 101 timetable")
	require.NoError(t, err)
	assert.True(t, len(payload) > len(small))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
