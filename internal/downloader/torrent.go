package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/anacrolix/torrent"

	"asciimation/internal/model"
	"asciimation/internal/progress"
)

const torrentPoll = 500 * time.Millisecond

// FetchMagnet downloads the largest video file of a magnet link into
// opts.Workdir. Nothing is seeded back.
func FetchMagnet(ctx context.Context, magnet string, opts Options) (model.DownloadedVideo, error) {
	if opts.Workdir == "" {
		return model.DownloadedVideo{}, fmt.Errorf("%w: working directory is required", model.ErrRetrieval)
	}
	rep := opts.reporter()

	cfg := torrent.NewDefaultClientConfig()
	cfg.DataDir = opts.Workdir
	cfg.NoUpload = true
	cfg.Seed = false
	cfg.ListenPort = 0
	client, err := torrent.NewClient(cfg)
	if err != nil {
		return model.DownloadedVideo{}, fmt.Errorf("%w: torrent client: %v", model.ErrRetrieval, err)
	}
	defer client.Close()

	t, err := client.AddMagnet(magnet)
	if err != nil {
		return model.DownloadedVideo{}, fmt.Errorf("%w: add magnet: %v", model.ErrRetrieval, err)
	}
	defer t.Drop()

	rep.Update(progress.Update{JobID: opts.JobID, Stage: progress.StageMetadata, Percent: -1, Message: "Waiting for torrent metadata"})
	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		return model.DownloadedVideo{}, fmt.Errorf("%w: %w", model.ErrRetrieval, ctx.Err())
	}

	files := t.Files()
	names := make([]string, len(files))
	sizes := make([]int64, len(files))
	for i, f := range files {
		names[i], sizes[i] = f.DisplayPath(), f.Length()
	}
	idx := largestVideo(names, sizes)
	if idx < 0 {
		return model.DownloadedVideo{}, fmt.Errorf("%w: torrent %q has no video file", model.ErrRetrieval, t.Name())
	}
	f := files[idx]
	f.Download()
	if l := opts.Logger; l != nil {
		l.Debug().Str("file", f.DisplayPath()).Int64("bytes", f.Length()).Msg("torrent file selected")
	}

	if err := waitComplete(ctx, f, opts, rep); err != nil {
		return model.DownloadedVideo{}, fmt.Errorf("%w: %w", model.ErrRetrieval, err)
	}

	return model.DownloadedVideo{
		InputPath: filepath.Join(opts.Workdir, filepath.FromSlash(f.Path())),
		Title:     t.Name(),
		ID:        t.InfoHash().HexString(),
		URL:       magnet,
	}, nil
}

func waitComplete(ctx context.Context, f *torrent.File, opts Options, rep progress.Reporter) error {
	total := f.Length()
	tick := time.NewTicker(torrentPoll)
	defer tick.Stop()
	for {
		done := f.BytesCompleted()
		b := done
		rep.Update(progress.Update{
			JobID:   opts.JobID,
			Stage:   progress.StageDownloading,
			Percent: percentOf(done, total),
			Bytes:   &b,
			Message: "Downloading torrent",
		})
		if done >= total {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func percentOf(done, total int64) float64 {
	if total <= 0 {
		return -1
	}
	return float64(done) / float64(total) * 100
}

// largestVideo returns the index of the biggest file with a video extension, or -1.
func largestVideo(names []string, sizes []int64) int {
	best := -1
	for i, n := range names {
		if !IsVideoFile(n) {
			continue
		}
		if best < 0 || sizes[i] > sizes[best] {
			best = i
		}
	}
	return best
}

var errUnknownSource = errors.New("unknown source kind")
