package synth

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubtitleBuilderSingleCue(t *testing.T) {
	b := NewSubtitleBuilder()
	b.Feed("xin", 0, 300*time.Millisecond)
	b.Feed("chào", 350*time.Millisecond, 400*time.Millisecond)

	out := b.SRT()
	require.Contains(t, out, "1\r\n")
	require.Contains(t, out, "00:00:00,000 --> 00:00:00,750")
	require.Contains(t, out, "xin chào")
	require.False(t, b.Empty())
}

func TestSubtitleBuilderSplitsOnPause(t *testing.T) {
	b := NewSubtitleBuilder()
	b.Feed("first", 0, 200*time.Millisecond)
	// Gap over the pause threshold forces a new cue.
	b.Feed("second", 2*time.Second, 200*time.Millisecond)

	out := b.SRT()
	require.Contains(t, out, "1\r\n")
	require.Contains(t, out, "2\r\n")
	require.Contains(t, out, "00:00:02,000 --> 00:00:02,200")
}

func TestSubtitleBuilderSplitsOnWordCount(t *testing.T) {
	b := NewSubtitleBuilder()
	for i := 0; i < defaultMaxWordsPerCue+1; i++ {
		offset := time.Duration(i) * 300 * time.Millisecond
		b.Feed("word", offset, 250*time.Millisecond)
	}
	require.Equal(t, 2, strings.Count(b.SRT(), " --> "))
}

func TestSubtitleBuilderTimestampsNeverRegress(t *testing.T) {
	b := NewSubtitleBuilder()
	b.Feed("a", 500*time.Millisecond, 400*time.Millisecond)
	// Out-of-order boundary gets clamped forward.
	b.Feed("b", 100*time.Millisecond, 100*time.Millisecond)

	var last time.Duration
	for _, line := range strings.Split(b.SRT(), "\r\n") {
		if !strings.Contains(line, " --> ") {
			continue
		}
		parts := strings.Split(line, " --> ")
		start := parseSRTTime(t, parts[0])
		end := parseSRTTime(t, parts[1])
		require.GreaterOrEqual(t, start, last)
		require.Greater(t, end, start)
		last = end
	}
}

func TestSubtitleBuilderIgnoresBlankWords(t *testing.T) {
	b := NewSubtitleBuilder()
	b.Feed("  ", 0, time.Second)
	require.True(t, b.Empty())
	require.Empty(t, b.SRT())
}

func TestSubtitleBuilderRenderIsStable(t *testing.T) {
	b := NewSubtitleBuilder()
	b.Feed("one", 0, 200*time.Millisecond)
	b.Feed("two", 250*time.Millisecond, 200*time.Millisecond)
	require.Equal(t, b.SRT(), b.SRT())
}

func parseSRTTime(t *testing.T, s string) time.Duration {
	t.Helper()
	var h, m, sec, ms int
	n, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond
}
