package p2p

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBanScore_ThresholdsAndDecay(t *testing.T) {
	var b BanScore
	now := time.Now()

	b.Add(now, 40)
	require.False(t, b.ShouldThrottle(now))

	b.Add(now, 20)
	require.True(t, b.ShouldThrottle(now))
	require.False(t, b.ShouldBan(now))

	b.Add(now, 50)
	require.True(t, b.ShouldBan(now))

	later := now.Add(30 * time.Minute)
	require.False(t, b.ShouldBan(later), "score should decay 1/minute")
}
