package catalog

import (
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestPreferenceCompare(t *testing.T) {
	assert := assert_.New(t)
	// Ascending by rank; every adjacent pair differs in exactly the next
	// tuple element, so this pins the element order.
	ladder := []preference{
		{height: 1080, fps: 30, bitrate: 1000},
		{height: 1080, fps: 30, bitrate: 2000},
		{height: 1080, fps: 60, bitrate: 1000},
		{height: 2160, fps: 30, bitrate: 1000},
		{direct: true, height: 360},
		{mp4: true, height: 360},
		{progressive: true, height: 360},
	}
	for i := 1; i < len(ladder); i++ {
		assert.Positive(ladder[i].compare(ladder[i-1]), "ladder[%d] must outrank ladder[%d]", i, i-1)
		assert.Negative(ladder[i-1].compare(ladder[i]))
	}
	for _, p := range ladder {
		assert.Zero(p.compare(p))
	}
}

func TestPreferenceTotalOrder(t *testing.T) {
	assert := assert_.New(t)
	ps := []preference{
		{progressive: true, mp4: true, height: 360},
		{mp4: true, direct: true, height: 1080, fps: 60},
		{height: 2160},
		{progressive: true, height: 720, bitrate: 900},
		{mp4: true, direct: true, height: 1080, fps: 30},
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].compare(ps[j]) > 0 })
	for i := 1; i < len(ps); i++ {
		assert.GreaterOrEqual(ps[i-1].compare(ps[i]), 0, "descending order must hold at %d", i)
	}
	assert.True(ps[0].progressive)
	assert.True(ps[1].progressive)
	assert.Equal(2160, ps[len(ps)-1].height)
}
