package burn

import (
	"fmt"
	"time"

	"github.com/georgepadayatti/pdfburn/integrity"
)

// Receipt status and history actions.
const (
	StatusSigned = "Signed"
	ActionSigned = "SIGNED"
)

// HistoryEntry is one line of a document's audit history.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Receipt is the record kept for a filled document. Hashes are hex.
type Receipt struct {
	Status        string              `json:"status"`
	HashAlgorithm integrity.Algorithm `json:"hash_algorithm"`
	OriginalHash  string              `json:"original_hash"`
	FinalHash     string              `json:"final_hash"`
	History       []HistoryEntry      `json:"history"`
}

// Receipt builds the record of r, stamped at.
func (r *Result) Receipt(at time.Time) Receipt {
	return Receipt{
		Status:        StatusSigned,
		HashAlgorithm: r.Final.Algorithm,
		OriginalHash:  r.Original.Hex(),
		FinalHash:     r.Final.Hex(),
		History: []HistoryEntry{{
			Action:    ActionSigned,
			Details:   fmt.Sprintf("Signed with %d fields", r.Fields()),
			Timestamp: at.UTC(),
		}},
	}
}

// Verify reports whether data is the document this receipt describes.
func (rc Receipt) Verify(data []byte) (bool, error) {
	want, err := integrity.ParseFingerprint(rc.FinalHash, rc.HashAlgorithm)
	if err != nil {
		return false, err
	}
	hasher, err := integrity.NewHasher(want.Algorithm)
	if err != nil {
		return false, err
	}
	return hasher.Sum(data).Equal(want), nil
}
