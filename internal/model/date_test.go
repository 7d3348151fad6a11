package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", d.String())
	assert.True(t, d.Equal(NewDate(2024, time.May, 1)))

	_, err = ParseDate("05/01/2024")
	assert.Error(t, err)
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	d := DateOf(time.Date(2024, 5, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-05-01", d.String())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &payload))
	assert.Equal(t, "2024-02-29", payload.Date.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &payload))
	assert.True(t, payload.Date.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &payload))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-02", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-04")))
	assert.Equal(t, "2024-03-04", d.String())

	require.NoError(t, d.Scan("2024-03-05T00:00:00Z"))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2024, time.June, 9).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), v)
}
