package album

import (
	"errors"
	"fmt"
)

// Pipeline errors. The first three are fatal and abort the run; a
// PartialDownloadError is reported after the run has completed with every
// successfully downloaded file kept in place.
var (
	// ErrMetadataFetch indicates the webstream call failed or returned an
	// unparsable body.
	ErrMetadataFetch = errors.New("album metadata fetch failed")

	// ErrBatchFetch indicates a webasseturls batch failed. Batches resolved
	// before the failing one are discarded.
	ErrBatchFetch = errors.New("asset URL batch fetch failed")

	// ErrAssetResolution indicates the service returned a checksum whose
	// location reference cannot be resolved to a host. This violates the
	// service contract and is fatal for the run.
	ErrAssetResolution = errors.New("asset location inconsistent")
)

// PartialDownloadError reports that some transfers failed while the rest of
// the run completed. It carries the failure count.
type PartialDownloadError struct {
	Failed int
}

func (e *PartialDownloadError) Error() string {
	return fmt.Sprintf("%d downloads failed", e.Failed)
}
