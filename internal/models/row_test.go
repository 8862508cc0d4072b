package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowNumCoercion(t *testing.T) {
	row := Row{
		"float":  12.5,
		"int":    3,
		"string": " 7.25 ",
		"json":   json.Number("4.5"),
		"bad":    "abc",
		"empty":  "",
		"nil":    nil,
		"bool":   true,
	}

	assert.Equal(t, 12.5, row.Num("float"))
	assert.Equal(t, 3.0, row.Num("int"))
	assert.Equal(t, 7.25, row.Num("string"))
	assert.Equal(t, 4.5, row.Num("json"))
	assert.Equal(t, 0.0, row.Num("bad"))
	assert.Equal(t, 0.0, row.Num("empty"))
	assert.Equal(t, 0.0, row.Num("nil"))
	assert.Equal(t, 0.0, row.Num("missing"))
	assert.Equal(t, 1.0, row.Num("bool"))
}

func TestRowNumOrFallsBack(t *testing.T) {
	withActual := Row{FieldQty: 10.0, FieldActualQty: 8.0}
	withoutActual := Row{FieldQty: 10.0}
	blankActual := Row{FieldQty: 10.0, FieldActualQty: ""}
	zeroActual := Row{FieldQty: 10.0, FieldActualQty: 0.0}

	assert.Equal(t, 8.0, withActual.NumOr(FieldActualQty, FieldQty))
	assert.Equal(t, 10.0, withoutActual.NumOr(FieldActualQty, FieldQty))
	assert.Equal(t, 10.0, blankActual.NumOr(FieldActualQty, FieldQty))
	assert.Equal(t, 0.0, zeroActual.NumOr(FieldActualQty, FieldQty))
}

func TestRowStr(t *testing.T) {
	row := Row{"id": "ABC1234", "num": 1234567.0, "int": 5}

	assert.Equal(t, "ABC1234", row.Str("id"))
	assert.Equal(t, "1234567", row.Str("num"))
	assert.Equal(t, "5", row.Str("int"))
	assert.Equal(t, "", row.Str("missing"))
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-03-01 10:20:30", true, time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)},
		{"2024-03-01T10:20", true, time.Date(2024, 3, 1, 10, 20, 0, 0, time.Local)},
		{"2024-03-01", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
		{"", false, time.Time{}},
		{"yesterday", false, time.Time{}},
	}

	for _, tt := range tests {
		got, ok := ParseDateTime(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), tt.in)
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	assert.Equal(t, "2024-01-02 03:04:05", FormatDateTime(ts))
}

func TestProductBalanceTimestampPrefersRecordTime(t *testing.T) {
	b := ProductBalanceFromRow(Row{
		FieldDate:       "2024-01-01 00:00:00",
		FieldRecordedAt: "2024-02-01 00:00:00",
	})
	assert.Equal(t, 2, int(b.Timestamp().Month()))

	b = ProductBalanceFromRow(Row{FieldDate: "2024-01-01 00:00:00"})
	assert.Equal(t, 1, int(b.Timestamp().Month()))
}

func TestConsumptionActualFallsBackToPlanned(t *testing.T) {
	c := ProductConsumptionFromRow(Row{FieldQty: "3", FieldBatchID: "B1"})
	assert.Equal(t, 3.0, c.PlannedQty)
	assert.Equal(t, 3.0, c.ActualQty)
	assert.Equal(t, "B1", c.BatchID)
}
