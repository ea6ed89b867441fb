package publish

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/place"
	"github.com/localgaid/pipeline/internal/retrypolicy"
)

// Remote object prefix; run-scoped so re-publishing never clobbers a
// previous run's files.
const remoteFolderPrefix = "audio-guides"

// MIME types for the two guide artifacts.
const (
	audioContentType    = "audio/mpeg"
	subtitleContentType = "application/x-subrip"
)

// Publisher pushes a Gold record to production. Every guide file uploads
// before any database write happens, so a failed upload leaves the database
// untouched and a failed database write leaves only orphaned objects under a
// run-scoped prefix.
type Publisher struct {
	blobs  BlobStore
	store  PlaceStore
	retry  *retrypolicy.Policy
	logger *zap.Logger
}

// NewPublisher wires the blob store and place store with retrying uploads.
func NewPublisher(blobs BlobStore, store PlaceStore, retry *retrypolicy.Policy, logger *zap.Logger) *Publisher {
	if retry == nil {
		retry = retrypolicy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		blobs:  blobs,
		store:  store,
		retry:  retry,
		logger: logger,
	}
}

// Publish uploads all guide files under audio-guides/{runID}/, rewrites the
// guide URLs to the returned storage URLs, and then replaces the place in
// the database. The returned Gold record carries the rewritten URLs.
func (p *Publisher) Publish(ctx context.Context, runID string, gold place.PlaceDataGold) (place.PlaceDataGold, error) {
	if runID == "" {
		return place.PlaceDataGold{}, fmt.Errorf("run id is required")
	}
	if len(gold.AudioGuides) == 0 {
		return place.PlaceDataGold{}, fmt.Errorf("place %q has no audio guides to publish", gold.Name)
	}

	folder := path.Join(remoteFolderPrefix, runID)
	uploaded := make([]place.AudioGuide, 0, len(gold.AudioGuides))
	for i, guide := range gold.AudioGuides {
		audioURL, err := p.upload(ctx, guide.AudioURL, folder, audioContentType)
		if err != nil {
			return place.PlaceDataGold{}, fmt.Errorf("upload audio for guide %d (%s): %w", i+1, guide.Title, err)
		}
		subtitleURL, err := p.upload(ctx, guide.SubtitleURL, folder, subtitleContentType)
		if err != nil {
			return place.PlaceDataGold{}, fmt.Errorf("upload subtitle for guide %d (%s): %w", i+1, guide.Title, err)
		}

		guide.AudioURL = audioURL
		guide.SubtitleURL = subtitleURL
		uploaded = append(uploaded, guide)
		p.logger.Info("uploaded audio guide",
			zap.String("place", gold.Name),
			zap.String("title", guide.Title),
			zap.String("audio_url", audioURL),
			zap.String("subtitle_url", subtitleURL),
		)
	}

	published := gold
	published.AudioGuides = uploaded

	placeID, err := p.store.UpsertPlace(ctx, PlaceRecord{
		Name:      published.Name,
		Latitude:  published.Latitude,
		Longitude: published.Longitude,
		Images:    published.Images,
	})
	if err != nil {
		return place.PlaceDataGold{}, fmt.Errorf("upsert place %q: %w", gold.Name, err)
	}
	if err := p.store.ReplaceAudioGuides(ctx, placeID, published.AudioGuides); err != nil {
		return place.PlaceDataGold{}, fmt.Errorf("replace audio guides for %q: %w", gold.Name, err)
	}
	p.logger.Info("published place",
		zap.String("place", gold.Name),
		zap.Int64("place_id", placeID),
		zap.Int("audio_guides", len(uploaded)),
	)
	return published, nil
}

func (p *Publisher) upload(ctx context.Context, localPath, folder, contentType string) (string, error) {
	remotePath := path.Join(folder, filepath.Base(localPath))
	var url string
	err := p.retry.Do(ctx, func() error {
		var uploadErr error
		url, uploadErr = p.blobs.Upload(ctx, localPath, remotePath, contentType)
		return uploadErr
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
