package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// idAlphabet excludes 0, O, I and L so ids survive handwriting on paper
// forms and phone dictation.
const idAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ123456789"

// newCaseID builds the human-readable case identifier, e.g.
// GRV-AP-NLR-2025-000123-X4. The two-character suffix is random entropy so
// an id cannot be guessed from the sequence alone. Once assigned the id is
// opaque to the rest of the engine.
func newCaseID(prefix, region string, year int, seq int64) string {
	u := uuid.New()
	suffix := string(idAlphabet[int(u[0])%len(idAlphabet)]) + string(idAlphabet[int(u[1])%len(idAlphabet)])
	return fmt.Sprintf("%s-%s-%d-%06d-%s", prefix, region, year, seq, suffix)
}
