package shared

import (
	"fmt"

	"github.com/dialadrink/ledger/internal/platform/db"
)

// StorageErr folds unreachable-storage failures into ErrStorageUnavailable so
// callers can distinguish the one retryable class from everything else. Other
// errors pass through untouched.
func StorageErr(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}
