package synth

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/tcolgate/mp3"
)

// AudioDuration walks the MP3 frames of data and sums their decoded
// durations. The result is truncated to whole seconds, matching how the
// published guides report length.
func AudioDuration(data []byte) (int, error) {
	dec := mp3.NewDecoder(bytes.NewReader(data))

	var total time.Duration
	var frame mp3.Frame
	var skipped int
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("decode mp3 frame: %w", err)
		}
		total += frame.Duration()
	}
	if total <= 0 {
		return 0, fmt.Errorf("audio stream contains no decodable frames")
	}
	return int(total / time.Second), nil
}
