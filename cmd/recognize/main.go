package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/grid"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/recognizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(recognizer.StatusUnknown)
	}

	libPath := flag.String("lib", cfg.LibraryPath, "path to the onnxruntime shared library")
	metadataPath := flag.String("metadata", cfg.MetadataPath, "model metadata JSON (defaults to mnist-8)")
	previewPath := flag.String("preview", "", "write the normalized grid as an image to this path")
	previewSize := flag.Uint("preview-size", 280, "side length of the preview image in pixels")
	verbose := flag.Bool("v", false, "log pipeline details and print the grid")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: recognize [flags] <model.onnx> <image.png>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(recognizer.StatusUnknown)
	}
	modelPath, imagePath := args[0], args[1]

	log.SetOutput(os.Stderr)
	log.SetLevel(cfg.LogLevel)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	os.Exit(run(*libPath, *metadataPath, modelPath, imagePath, *previewPath, *previewSize, *verbose))
}

func run(libPath, metadataPath, modelPath, imagePath, previewPath string, previewSize uint, verbose bool) int {
	metadata, err := model.LoadMetadata(metadataPath)
	if err != nil {
		log.Error(err)
		return recognizer.StatusUnknown
	}

	// Model load failures are not inference failures: -8 is reserved for Run.
	env, err := model.InitEnvironment(libPath)
	if err != nil {
		log.Error(err)
		return recognizer.StatusUnknown
	}
	defer env.Close()

	session, err := model.NewSession(env, modelPath, metadata)
	if err != nil {
		log.Error(err)
		return recognizer.StatusUnknown
	}
	defer session.Close()

	result, err := recognizer.New(session).RecognizeFile(imagePath)
	if err != nil {
		code := recognizer.Status(err)
		log.WithError(err).WithField("code", code).Error("Failed to recognize")
		return code
	}

	if verbose {
		fmt.Fprint(os.Stderr, result.Grid.String())
	}
	if previewPath != "" {
		if err := imaging.Save(grid.Render(&result.Grid, previewSize), previewPath); err != nil {
			log.WithError(err).Warn("failed to write preview")
		}
	}

	fmt.Println(result.Digit)
	return recognizer.StatusOK
}
