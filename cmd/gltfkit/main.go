// Package main provides a command-line tool for inspecting and rewriting
// scene asset files.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goopsie/gltfkit/pkg/asset"
)

var (
	mode       string
	inputPath  string
	outputPath string
	binaryIn   bool
	binaryOut  bool
	verbose    bool
)

func init() {
	flag.StringVar(&mode, "mode", "", "Operation mode: info, roundtrip")
	flag.StringVar(&inputPath, "input", "", "Input asset file")
	flag.StringVar(&outputPath, "output", "", "Output file for roundtrip mode")
	flag.BoolVar(&binaryIn, "binary", false, "Treat the input as a binary container")
	flag.BoolVar(&binaryOut, "binary-out", false, "Write the output as a binary container")
	flag.BoolVar(&verbose, "verbose", false, "Log tolerated load conditions")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := validateFlags(); err != nil {
		flag.Usage()
		return err
	}

	var opts []asset.Option
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()
		opts = append(opts, asset.WithLogger(log))
	}

	doc, err := asset.Load(inputPath, binaryIn, opts...)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	switch mode {
	case "info":
		return runInfo(doc)
	case "roundtrip":
		return runRoundtrip(doc)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func validateFlags() error {
	if mode == "" {
		return fmt.Errorf("mode is required")
	}
	if inputPath == "" {
		return fmt.Errorf("input file is required")
	}
	if mode == "roundtrip" && outputPath == "" {
		return fmt.Errorf("roundtrip mode requires -output")
	}
	return nil
}

func runInfo(doc *asset.Document) error {
	version := doc.Asset.Version
	if version == "" {
		version = "(unversioned)"
	}
	fmt.Printf("Asset version %s", version)
	if doc.Asset.Generator != "" {
		fmt.Printf(", generated by %s", doc.Asset.Generator)
	}
	fmt.Println()

	if doc.Scene == nil {
		fmt.Println("No default scene; nothing resolved")
		return nil
	}
	fmt.Printf("Default scene %q with %d root node(s)\n", doc.Scene.ID, len(doc.Scene.Nodes))

	rows := []struct {
		label string
		count int
	}{
		{"nodes", doc.Nodes.Len()},
		{"meshes", doc.Meshes.Len()},
		{"materials", doc.Materials.Len()},
		{"skins", doc.Skins.Len()},
		{"accessors", doc.Accessors.Len()},
		{"bufferViews", doc.BufferViews.Len()},
		{"buffers", doc.Buffers.Len()},
	}
	for _, row := range rows {
		fmt.Printf("  %-12s %d\n", row.label, row.count)
	}

	for i := 0; i < doc.Buffers.Len(); i++ {
		buf, _ := doc.Buffers.GetByIndex(i)
		kind := "side-file"
		if buf.Special() {
			kind = "embedded"
		}
		fmt.Printf("Buffer %q: %d bytes (%s)\n", buf.ID, buf.Length(), kind)
	}
	return nil
}

func runRoundtrip(doc *asset.Document) error {
	if binaryOut {
		if err := doc.SaveBinary(outputPath); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	} else {
		if err := doc.Save(outputPath); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	fmt.Printf("Rewrote %s\n", outputPath)
	return nil
}
