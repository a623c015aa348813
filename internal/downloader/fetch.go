package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"asciimation/internal/model"
	"asciimation/internal/progress"
)

// Fetch resolves src to a local video file. Web URLs go through yt-dlp,
// magnet links through the torrent client and local files are used in place.
func Fetch(ctx context.Context, src model.Source, opts Options) (model.DownloadedVideo, error) {
	switch src.Kind {
	case model.SourceWeb:
		return Download(ctx, src.Raw, opts)
	case model.SourceMagnet:
		return FetchMagnet(ctx, src.Raw, opts)
	case model.SourceFile:
		fi, err := os.Stat(src.Raw)
		if err != nil {
			return model.DownloadedVideo{}, fmt.Errorf("%w: %v", model.ErrRetrieval, err)
		}
		if !fi.Mode().IsRegular() || fi.Size() == 0 {
			return model.DownloadedVideo{}, fmt.Errorf("%w: %s is not a usable video file", model.ErrRetrieval, src.Raw)
		}
		opts.reporter().Update(progress.Update{JobID: opts.JobID, Stage: progress.StageDownloading, Percent: 100, Message: "Using local file"})
		name := filepath.Base(src.Raw)
		return model.DownloadedVideo{
			InputPath: src.Raw,
			Title:     strings.TrimSuffix(name, filepath.Ext(name)),
			URL:       src.Raw,
		}, nil
	default:
		return model.DownloadedVideo{}, fmt.Errorf("%w: %w %q", model.ErrRetrieval, errUnknownSource, src.Kind)
	}
}
