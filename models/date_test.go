package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-05-06", want: Date{2024, time.May, 6}},
		{in: "2024-05-06T23:30:00-07:00", want: Date{2024, time.May, 6}},
		{in: "2024-05-06T00:15:00.000Z", want: Date{2024, time.May, 6}},
		{in: "2024-05-06T01:00:00+09:00", want: Date{2024, time.May, 6}},
		{in: "06/05/2024", wantErr: true},
		{in: "2024-05", wantErr: true},
		{in: "2024-05-06garbage", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateJSONKeepsCalendarDay(t *testing.T) {
	type wrapper struct {
		Due Date `json:"dueDate"`
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2024-12-31T23:59:59-10:00"}`), &w))
	assert.Equal(t, Date{2024, time.December, 31}, w.Due)

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dueDate":"2024-12-31"}`, string(out))
}

func TestDateJSONEmpty(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDateScanValue(t *testing.T) {
	d := Date{2025, time.March, 9}
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", v)

	var scanned Date
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan([]byte("2025-03-10")))
	assert.Equal(t, Date{2025, time.March, 10}, scanned)

	require.NoError(t, scanned.Scan(time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Date{2025, time.March, 11}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	assert.Error(t, scanned.Scan(42))
}

func TestDateArithmetic(t *testing.T) {
	d := Date{2024, time.February, 28}
	assert.Equal(t, Date{2024, time.February, 29}, d.AddDays(1))
	assert.Equal(t, Date{2024, time.March, 1}, d.AddDays(2))
	assert.Equal(t, Date{2024, time.February, 22}, d.AddDays(-6))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, time.Wednesday, d.Weekday())
}

func TestGoalTargetAcceptsNumberOrString(t *testing.T) {
	var r Reward
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r1","type":"totalTasks","targetValue":12}`), &r))
	n, ok := r.TargetValue.Int()
	require.True(t, ok)
	assert.Equal(t, 12, n)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"r2","type":"specificTask","targetValue":"task-abc"}`), &r))
	assert.Equal(t, GoalTarget("task-abc"), r.TargetValue)
	_, ok = r.TargetValue.Int()
	assert.False(t, ok)

	out, err := json.Marshal(Reward{ID: "r3", TargetValue: "7"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"targetValue":7`)

	out, err = json.Marshal(Reward{ID: "r4"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "targetValue")
}
