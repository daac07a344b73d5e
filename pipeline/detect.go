package pipeline

import (
	"context"
	"image"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/stereokin/stereokin/framematch"
	"github.com/stereokin/stereokin/rimage"
	"github.com/stereokin/stereokin/rimage/transform"
	"github.com/stereokin/stereokin/vision/finder"
)

func defaultWorkers() int {
	return max(runtime.GOMAXPROCS(0), 1)
}

// detectAll runs the finder on both frames of every pair. Each goroutine writes only its own
// frame's slot, so the results stay in frame order.
func (e *Experiment) detectAll(ctx context.Context, frames []framematch.TimedPathPair) ([][]finder.Candidate, [][]finder.Candidate, error) {
	left := make([][]finder.Candidate, len(frames))
	right := make([][]finder.Candidate, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, frame := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pair, err := frame.Load()
			if err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}
			if left[i], err = e.detect(transform.LeftCamera, frame.Left, pair.Left); err != nil {
				return err
			}
			right[i], err = e.detect(transform.RightCamera, frame.Right, pair.Right)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (e *Experiment) detect(side transform.CameraIdentifier, path string, img image.Image) ([]finder.Candidate, error) {
	candidates, err := e.find.Find(img)
	if err != nil {
		return nil, errors.Wrapf(err, "%s frame %s", side, filepath.Base(path))
	}
	if len(candidates) != 1 {
		e.logger.Debugw("ambiguous or empty frame", "camera", side, "frame", filepath.Base(path), "candidates", len(candidates))
	}
	if e.debugDir != "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
		out := filepath.Join(e.debugDir, side.String(), name)
		if err := rimage.WriteImageToFile(out, rimage.DrawCircles(img, finder.Circles(candidates))); err != nil {
			e.logger.Warnw("cannot write debug frame", "path", out, "error", err)
		}
	}
	return candidates, nil
}
