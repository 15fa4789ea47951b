package process

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/xerror"
)

const snapshotTimestampFormat = "2006-01-02T15.04.05"

var fs = afero.NewOsFs()

var TimeNow = func() time.Time {
	return time.Now()
}

// Snapshotter is a source whose latest converted frame can be copied out.
type Snapshotter interface {
	Title() string
	CopyTexture() (*image.RGBA, uint64, bool)
}

// SnapshotProcess writes a PNG of the source's latest frame to
// <location>/<title>/ every interval, skipping ticks where no new frame
// has been converted since the last write.
func SnapshotProcess(src Snapshotter, location string, interval time.Duration) func(context.Context) []chan interface{} {
	return func(cancel context.Context) []chan interface{} {
		log.Info("Writing snapshots for image source [%s] every %s", src.Title(), interval)
		stopping := make(chan interface{})
		go func(cancel context.Context, stopping chan interface{}) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			var lastGeneration uint64
			for {
				select {
				case <-cancel.Done():
					close(stopping)
					return
				case <-ticker.C:
					generation, err := snapshot(src, location, lastGeneration)
					if err != nil {
						log.Error(err.Error())
						continue
					}
					lastGeneration = generation
				}
			}
		}(cancel, stopping)
		return []chan interface{}{stopping}
	}
}

func snapshot(src Snapshotter, location string, lastGeneration uint64) (uint64, error) {
	img, generation, ok := src.CopyTexture()
	if !ok || generation == lastGeneration {
		return lastGeneration, nil
	}

	path := snapshotPath(location, src.Title())
	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm|os.ModeDir); err != nil {
		return lastGeneration, xerror.Errorf("unable to create snapshot dir for [%s]: %w", src.Title(), err)
	}

	file, err := fs.Create(path)
	if err != nil {
		return lastGeneration, xerror.Errorf("unable to create snapshot file for [%s]: %w", src.Title(), err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return lastGeneration, xerror.Errorf("unable to encode snapshot for [%s]: %w", src.Title(), err)
	}

	log.Debug("Wrote snapshot for [%s] to: %s", src.Title(), path)
	return generation, nil
}

func snapshotPath(location, title string) string {
	return filepath.Join(
		location,
		title,
		fmt.Sprintf("%s-%s.png", TimeNow().Format(snapshotTimestampFormat), uuid.NewString()),
	)
}
