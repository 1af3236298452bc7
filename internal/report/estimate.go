package report

import (
	"fmt"

	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

const (
	minEstimateSeconds = 45
	maxEstimateSeconds = 1800
)

// PerCardSeconds is the rough wall-clock cost of one card for each media kind.
func PerCardSeconds(kind media.Kind) float64 {
	if kind == media.KindSpeech {
		return 6.0
	}
	return 12.0
}

// EstimateMediaDuration guesses how long a run over count cards takes, clamped to
// [45s, 30m]. It returns the estimate in seconds and a human-readable phrase.
func EstimateMediaDuration(count int, perCard float64) (int, string) {
	if count <= 0 {
		return 60, "About 1 minute"
	}
	seconds := int(min(maxEstimateSeconds, max(minEstimateSeconds, float64(count)*perCard)))
	if minutes := seconds / 60; minutes > 0 {
		plural := ""
		if minutes > 1 {
			plural = "s"
		}
		return seconds, fmt.Sprintf("Roughly %d minute%s", minutes, plural)
	}
	return seconds, fmt.Sprintf("About %d seconds", seconds)
}
