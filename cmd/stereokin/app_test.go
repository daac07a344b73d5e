package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/stereokin/stereokin/config"
	"github.com/stereokin/stereokin/framematch"
	"github.com/stereokin/stereokin/pipeline"
	"github.com/stereokin/stereokin/rimage"
)

const shotConfig = `{
  "leftCamera": {
    "focalX": 300, "focalY": 300, "skew": 0, "principalPointX": 160, "principalPointY": 120,
    "position": [-0.5, 0, 0], "yaw": 0, "pitch": 0, "roll": 0,
    "framerate": 10, "imagesFolderPath": "left"
  },
  "rightCamera": {
    "focalX": 300, "focalY": 300, "skew": 0, "principalPointX": 160, "principalPointY": 120,
    "position": [0.5, 0, 0], "yaw": 0, "pitch": 0, "roll": 0,
    "framerate": 10, "imagesFolderPath": "right"
  }
}`

func writeDisc(t *testing.T, path string, cx, cy int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= 15*15 {
				img.SetGray(x, y, color.Gray{255})
			}
		}
	}
	test.That(t, rimage.WriteImageToFile(path, img), test.ShouldBeNil)
}

// writeShot renders a ball moving along x at depth 5 as seen by both cameras of shotConfig.
func writeShot(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("frame_%02d.png", i)
		writeDisc(t, filepath.Join(root, "left", name), 166+6*i, 120)
		writeDisc(t, filepath.Join(root, "right", name), 106+6*i, 120)
	}
	path := filepath.Join(root, "shot.json")
	test.That(t, os.WriteFile(path, []byte(shotConfig), 0o600), test.ShouldBeNil)
	return path
}

func TestRunAction(t *testing.T) {
	cfg := writeShot(t, 5)
	outDir := t.TempDir()
	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout

	err := app.Run([]string{
		"stereokin", "run",
		"-c", cfg,
		"-o", filepath.Join(outDir, "kin"),
		"--workers", "2",
		"--plot-dir", filepath.Join(outDir, "plots"),
	})
	test.That(t, err, test.ShouldBeNil)

	data, err := os.ReadFile(filepath.Join(outDir, "kin.csv"))
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 6)

	for _, name := range []string{"speed.png", "acceleration.png", "trajectory.png"} {
		_, err := os.Stat(filepath.Join(outDir, "plots", name))
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, stdout.String(), test.ShouldNotBeEmpty)
}

func TestRunActionErrors(t *testing.T) {
	t.Run("missing config flag", func(t *testing.T) {
		app := newApp()
		app.Writer = &bytes.Buffer{}
		app.ErrWriter = &bytes.Buffer{}
		test.That(t, app.Run([]string{"stereokin", "run"}), test.ShouldNotBeNil)
	})

	t.Run("missing camera field", func(t *testing.T) {
		cfg := writeShot(t, 2)
		data, err := os.ReadFile(cfg)
		test.That(t, err, test.ShouldBeNil)
		stripped := strings.Replace(string(data), `"skew": 0, `, "", 1)
		test.That(t, os.WriteFile(cfg, []byte(stripped), 0o600), test.ShouldBeNil)
		err = newApp().Run([]string{"stereokin", "run", "-c", cfg})
		test.That(t, errors.Is(err, config.ErrMissingField), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "leftCamera.skew")
	})

	t.Run("unreadable config", func(t *testing.T) {
		app := newApp()
		err := app.Run([]string{"stereokin", "run", "-c", filepath.Join(t.TempDir(), "nope.json")})
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("bad stride", func(t *testing.T) {
		app := newApp()
		err := app.Run([]string{"stereokin", "run", "-c", writeShot(t, 2), "--stride", "0"})
		test.That(t, errors.Is(err, framematch.ErrInvalidStride), test.ShouldBeTrue)
	})

	t.Run("single frame cannot be differentiated twice", func(t *testing.T) {
		app := newApp()
		app.Writer = &bytes.Buffer{}
		err := app.Run([]string{"stereokin", "run", "-c", writeShot(t, 1), "-o", filepath.Join(t.TempDir(), "out")})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "computing kinematics")
		test.That(t, errors.Is(err, pipeline.ErrPrerequisiteStage), test.ShouldBeTrue)
	})
}

func TestSchemaAction(t *testing.T) {
	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	test.That(t, app.Run([]string{"stereokin", "schema"}), test.ShouldBeNil)

	var out map[string]interface{}
	test.That(t, json.Unmarshal(stdout.Bytes(), &out), test.ShouldBeNil)
	test.That(t, out["experiment"], test.ShouldNotBeNil)
	finders, ok := out["finders"].(map[string]interface{})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, finders["find_circles"], test.ShouldNotBeNil)
}
