// Package main is the stereokin command line tool.
package main

import (
	"os"

	"github.com/stereokin/stereokin/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}
