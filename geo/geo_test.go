package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	serasa = LatLng{Lat: 4.9456, Lng: 114.9378}
	labuan = LatLng{Lat: 5.2767, Lng: 115.2417}
)

func TestDistanceKm_SerasaLabuan(t *testing.T) {
	d := DistanceKm(serasa, labuan)

	// Known crossing distance, allow half a kilometer of slack.
	assert.InDelta(t, 49.9, d, 0.5)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	assert.Equal(t, DistanceKm(serasa, labuan), DistanceKm(labuan, serasa))
}

func TestDistanceKm_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(serasa, serasa))
}

func TestDistanceKm_Deterministic(t *testing.T) {
	first := DistanceKm(serasa, labuan)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DistanceKm(serasa, labuan))
	}
}

func TestTravelTime_CrossingAt25Knots(t *testing.T) {
	d := DistanceKm(serasa, labuan)
	tt := TravelTime(d, 25)

	// 49.9 km at 46.3 km/h is about 65 minutes.
	assert.InDelta(t, 65, tt.Minutes(), 1)
}

func TestTravelTime_ZeroSpeed(t *testing.T) {
	assert.Equal(t, time.Duration(0), TravelTime(10, 0))
	assert.Equal(t, time.Duration(0), TravelTime(10, -5))
}

func TestTravelTime_RoundsToMinute(t *testing.T) {
	tt := TravelTime(46.3, 25) // exactly one hour at 25 knots
	assert.Equal(t, 60*time.Minute, tt)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{51 * time.Minute, "51m"},
		{60 * time.Minute, "1h 0m"},
		{65 * time.Minute, "1h 5m"},
		{0, "0m"},
		{125 * time.Minute, "2h 5m"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.in))
	}
}
