package vocab

import "errors"

// Sentinel errors for the vocab package.
// Use errors.Is to check: errors.Is(err, vocab.ErrInvalidGrade)
var (
	ErrInvalidGrade   = errors.New("vocab: invalid grade")
	ErrInvalidStage   = errors.New("vocab: invalid stage")
	ErrInvalidConfig  = errors.New("vocab: invalid scheduler config")
	ErrCardIDMismatch = errors.New("vocab: card ID mismatch in review log")
)
