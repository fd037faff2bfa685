package fairplay

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// code longer than this alone maxes out the base score
	codeLenCeiling = 8000
	// each paste byte contributes 1/pasteImpactDivisor to the score
	pasteImpactDivisor = 5000
	// pastes larger than this are flagged as blocked
	blockedPasteBytes = 20000
)

// PasteEvent is one observed bulk-paste action tied to a submission.
// Rows are append-only and never mutated after insertion.
type PasteEvent struct {
	ID         uuid.UUID
	SubmUUID   uuid.UUID
	ByteSize   int
	Source     string
	Blocked    bool
	DetectedAt time.Time
}

// NewPasteEvent records a paste observation, classifying oversized
// pastes as blocked. The flag is informational and does not by itself
// change the submission verdict.
func NewPasteEvent(submUUID uuid.UUID, byteSize int, source string, detectedAt time.Time) PasteEvent {
	return PasteEvent{
		ID:         uuid.New(),
		SubmUUID:   submUUID,
		ByteSize:   byteSize,
		Source:     source,
		Blocked:    IsBlocked(byteSize),
		DetectedAt: detectedAt,
	}
}

// IsBlocked reports whether a paste of the given size exceeds the
// bulk-paste threshold.
func IsBlocked(byteSize int) bool {
	return byteSize > blockedPasteBytes
}

// Score estimates the likelihood that a submission is not original work,
// as a value in [0,1] rounded to two decimals. Long submissions raise the
// base score linearly up to the ceiling; every paste event adds impact
// proportional to its byte size.
func Score(codeLen int, events []PasteEvent) float64 {
	base := math.Min(1, float64(codeLen)/codeLenCeiling)

	pasteImpact := 0.0
	for _, ev := range events {
		pasteImpact += float64(ev.ByteSize) / pasteImpactDivisor
	}

	score := math.Min(1, base+pasteImpact)
	return math.Round(score*100) / 100
}
