package entity

import "github.com/rotisserie/eris"

var (
	// ErrGenerationExhausted is returned by EntityID.BumpGeneration when the generation counter saturates.
	// Entities never surfaces it: an exhausted slot silently stays dead.
	ErrGenerationExhausted = eris.New("entity generation exhausted")
)
