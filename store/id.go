package store

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// newID returns the id of a stored trade. Ids sort in append order, even for
// trades appended within the same millisecond; seq remains the ledger order.
func newID() (string, error) {
	id, err := ulid.New(ulid.Now(), ulid.DefaultEntropy())
	if err != nil {
		return "", fmt.Errorf("cannot generate trade id: %w", err)
	}
	return id.String(), nil
}
