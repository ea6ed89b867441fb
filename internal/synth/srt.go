package synth

import (
	"fmt"
	"strings"
	"time"
)

// Subtitle cue grouping bounds. A cue closes when it holds maxWordsPerCue
// words or the next word starts more than maxCueGap after the previous one
// ends (a spoken pause).
const (
	defaultMaxWordsPerCue = 10
	defaultMaxCueGap      = 600 * time.Millisecond
)

// SubtitleBuilder accumulates word-boundary events and renders them as an
// SRT track with strictly increasing, non-overlapping cue timestamps.
type SubtitleBuilder struct {
	maxWordsPerCue int
	maxCueGap      time.Duration
	cues           []cue
	current        cue
}

type cue struct {
	words []string
	start time.Duration
	end   time.Duration
}

// NewSubtitleBuilder returns a builder with default cue grouping.
func NewSubtitleBuilder() *SubtitleBuilder {
	return &SubtitleBuilder{
		maxWordsPerCue: defaultMaxWordsPerCue,
		maxCueGap:      defaultMaxCueGap,
	}
}

// Feed appends one word boundary. Boundaries must arrive in stream order;
// out-of-order offsets are clamped forward so timestamps never regress.
func (b *SubtitleBuilder) Feed(word string, offset, duration time.Duration) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	if offset < b.current.end {
		offset = b.current.end
	}
	end := offset + duration
	if end <= offset {
		end = offset + time.Millisecond
	}

	if len(b.current.words) > 0 {
		gap := offset - b.current.end
		if len(b.current.words) >= b.maxWordsPerCue || gap > b.maxCueGap {
			b.flush()
		}
	}
	if len(b.current.words) == 0 {
		b.current.start = offset
	}
	b.current.words = append(b.current.words, word)
	b.current.end = end
}

// SRT renders the accumulated cues. The builder stays usable; rendering
// twice yields the same track.
func (b *SubtitleBuilder) SRT() string {
	cues := b.cues
	if len(b.current.words) > 0 {
		cues = append(cues, b.current)
	}
	var out strings.Builder
	for i, c := range cues {
		start, end := c.start, c.end
		// Keep cues strictly ordered and non-overlapping.
		if i > 0 && start < cues[i-1].end {
			start = cues[i-1].end
		}
		if end <= start {
			end = start + time.Millisecond
		}
		fmt.Fprintf(&out, "%d\r\n%s --> %s\r\n%s\r\n\r\n",
			i+1, srtTimestamp(start), srtTimestamp(end), strings.Join(c.words, " "))
	}
	return out.String()
}

// Empty reports whether no word has been fed.
func (b *SubtitleBuilder) Empty() bool {
	return len(b.cues) == 0 && len(b.current.words) == 0
}

func (b *SubtitleBuilder) flush() {
	b.cues = append(b.cues, b.current)
	b.current = cue{}
}

func srtTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
