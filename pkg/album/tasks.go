package album

import (
	"fmt"
	"path"
	"strings"

	"icgrab/pkg/icloud"
)

// DownloadTask is the fully materialized unit of work for one photo: the
// resolved URL of its best derivative plus the destination filename. Tasks
// are produced in album order and consumed exactly once by the download
// pool.
type DownloadTask struct {
	PhotoGUID string
	Checksum  string
	URL       string
	Filename  string
	SizeLabel string
}

// buildBatchTasks joins one batch of photos against that batch's
// webasseturls response. Photos without derivatives, and photos whose
// checksum is absent from the items map, are skipped silently; a checksum
// whose location reference is missing or hostless fails the run with
// ErrAssetResolution.
func buildBatchTasks(batch []icloud.Photo, assets *icloud.AssetURLs) ([]DownloadTask, error) {
	tasks := make([]DownloadTask, 0, len(batch))

	for i := range batch {
		photo := &batch[i]

		_, derivative, ok := BestDerivative(photo)
		if !ok {
			continue
		}

		asset, found := assets.Items[derivative.Checksum]
		if !found {
			// The asset may be unavailable for reasons outside our control;
			// this is not a request error.
			continue
		}

		location, found := assets.Locations[asset.URLLocation]
		if !found {
			return nil, fmt.Errorf("%w: no location %q for checksum %s",
				ErrAssetResolution, asset.URLLocation, derivative.Checksum)
		}
		if len(location.Hosts) == 0 {
			return nil, fmt.Errorf("%w: location %q has no hosts",
				ErrAssetResolution, asset.URLLocation)
		}

		tasks = append(tasks, DownloadTask{
			PhotoGUID: photo.PhotoGUID,
			Checksum:  derivative.Checksum,
			URL:       fmt.Sprintf("%s://%s%s", location.Scheme, location.Hosts[0], asset.URLPath),
			Filename:  deriveFilename(asset.URLPath, photo.PhotoGUID),
			SizeLabel: sizeLabel(derivative),
		})
	}

	return tasks, nil
}

// deriveFilename takes the final segment of the asset path with any
// query-string suffix stripped. When no filename can be derived the photo
// GUID is used with a .jpg extension.
func deriveFilename(urlPath, photoGUID string) string {
	name := path.Base(urlPath)
	if idx := strings.Index(name, "?"); idx != -1 {
		name = name[:idx]
	}
	if name == "" || name == "." || name == "/" {
		return photoGUID + ".jpg"
	}
	return name
}

// sizeLabel renders a human-readable dimension string, with "?" for
// dimensions the service did not report.
func sizeLabel(d icloud.Derivative) string {
	w, h := "?", "?"
	if d.Width > 0 {
		w = fmt.Sprintf("%d", uint64(d.Width))
	}
	if d.Height > 0 {
		h = fmt.Sprintf("%d", uint64(d.Height))
	}
	return w + "x" + h
}

// chunkPhotos partitions the photo list into consecutive groups of at most
// size, preserving order.
func chunkPhotos(photos []icloud.Photo, size int) [][]icloud.Photo {
	var chunks [][]icloud.Photo
	for start := 0; start < len(photos); start += size {
		end := start + size
		if end > len(photos) {
			end = len(photos)
		}
		chunks = append(chunks, photos[start:end])
	}
	return chunks
}
