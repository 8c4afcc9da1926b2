package condition

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dht = ThresholdSet{
	Temperature: {Low: 10, High: 25},
	Humidity:    {Low: 10, High: 80},
}

func reading(temp, hum float64) Reading {
	return NewReading(map[string]float64{Temperature: temp, Humidity: hum}, time.Unix(0, 0))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		r    Reading
		want Tag
	}{
		{"normal", reading(22, 50), Normal},
		{"above temperature", reading(30, 50), AboveRange},
		{"above humidity", reading(20, 95), AboveRange},
		{"below temperature", reading(5, 50), BelowRange},
		{"below humidity", reading(20, 5), BelowRange},
		{"below wins over above", reading(5, 90), BelowRange},
		{"low bound inclusive", reading(10, 10), Normal},
		{"high bound inclusive", reading(25, 80), Normal},
		{"nan humidity", reading(20, math.NaN()), SensorError},
		{"invalid marker", Invalid(time.Unix(0, 0)), SensorError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r, dht))
		})
	}
}

func TestClassifyIgnoresStoredValuesWhenInvalid(t *testing.T) {
	r := Reading{Values: map[string]float64{Temperature: 20, Humidity: 50}, Valid: false}
	assert.Equal(t, SensorError, Classify(r, dht))
}

func TestClassifyMissingQuantity(t *testing.T) {
	r := NewReading(map[string]float64{Temperature: 20}, time.Now())
	require.True(t, r.Valid)
	assert.Equal(t, SensorError, Classify(r, dht))
}

func TestClassifyUnmonitoredQuantityIgnored(t *testing.T) {
	r := NewReading(map[string]float64{Temperature: 20, Humidity: 50, Pressure: 2000}, time.Now())
	assert.Equal(t, Normal, Classify(r, dht))
}

func TestClassifyDeterministic(t *testing.T) {
	r := reading(5, 90)
	for i := 0; i < 50; i++ {
		require.Equal(t, BelowRange, Classify(r, dht))
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, dht.Validate())
	assert.ErrorIs(t, ThresholdSet{}.Validate(), ErrInvalidBounds)
	assert.ErrorIs(t, ThresholdSet{Temperature: {Low: 30, High: 10}}.Validate(), ErrInvalidBounds)
	assert.ErrorIs(t, ThresholdSet{Temperature: {Low: math.NaN(), High: 10}}.Validate(), ErrInvalidBounds)
}

func TestTagLabels(t *testing.T) {
	assert.Equal(t, "Normal", Normal.Status())
	assert.Equal(t, "Below Normal", BelowRange.Status())
	assert.Equal(t, "Above Normal", AboveRange.Status())
	assert.Equal(t, "Error", SensorError.Status())

	for _, tag := range Tags {
		got, err := ParseTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, got)
	}
	_, err := ParseTag("Hot")
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestReadingString(t *testing.T) {
	assert.Equal(t, "humidity=50.00 temperature=22.00", reading(22, 50).String())
	assert.Equal(t, "invalid", Invalid(time.Now()).String())
	assert.False(t, NewReading(nil, time.Now()).Valid)
}
