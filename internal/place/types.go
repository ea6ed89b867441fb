// Package place defines the tiered data model a place moves through as the
// pipeline enriches it: Bronze (raw harvest), Silver (narration script),
// Gold (narrated audio). Each tier embeds the previous one; a tier is never
// mutated once produced, later tiers are built with the With* extension
// functions.
package place

// PlaceConfig is the declarative input for one place: its display name, a
// "lat, lon" coordinate string, and the ordered list of source URLs to
// harvest.
type PlaceConfig struct {
	Name     string   `json:"name"`
	Location string   `json:"location"`
	URLs     []string `json:"urls"`
}

// PlaceDataBronze is the first durable snapshot: harvested page text plus the
// filtered image candidates and parsed coordinates.
type PlaceDataBronze struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Content   string   `json:"content"`
	Images    []string `json:"images"`
}

// PlaceDataSilver extends Bronze with the generated narration script.
type PlaceDataSilver struct {
	PlaceDataBronze
	Script string `json:"script"`
}

// PlaceDataGold extends Silver with the narrated audio guides, one per
// script section, in section order.
type PlaceDataGold struct {
	PlaceDataSilver
	AudioGuides []AudioGuide `json:"audio_guides"`
}

// AudioGuide is one published narrated section. AudioURL and SubtitleURL hold
// local paths until the publisher rewrites them to durable storage URLs.
type AudioGuide struct {
	Title           string `json:"title"`
	FullSubtitle    string `json:"full_subtitle"`
	AudioURL        string `json:"audio_url"`
	DurationSeconds int    `json:"duration_seconds"`
	SubtitleURL     string `json:"subtitle_url"`
}

// AudioScriptSection is a transient parse result, consumed by the audio
// composer and never persisted.
type AudioScriptSection struct {
	Number  int
	Title   string
	Content string
}

// WithScript extends a Bronze snapshot into Silver. The input is copied, not
// mutated.
func WithScript(bronze PlaceDataBronze, script string) PlaceDataSilver {
	return PlaceDataSilver{
		PlaceDataBronze: bronze,
		Script:          script,
	}
}

// WithAudioGuides extends a Silver snapshot into Gold. The input is copied,
// not mutated.
func WithAudioGuides(silver PlaceDataSilver, guides []AudioGuide) PlaceDataGold {
	return PlaceDataGold{
		PlaceDataSilver: silver,
		AudioGuides:     guides,
	}
}
