// Package main is the entry point for the file-tools HTTP service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// rootCmd is the base command for the file-tools CLI.
var rootCmd = &cobra.Command{
	Use:   "file-tools",
	Short: "HTTP service for PDF and image conversion",
	Long: `file-tools serves single-shot file conversions over HTTP: PDF page
rendering and merging, splitting, rotation, watermarking and compression,
plus image resizing, cropping, format conversion, compression, background
removal and OCR.

Upload a file with multipart/form-data and receive the converted file as
an attachment. Run "file-tools serve" to start the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./file-tools.yaml or ~/.config/file-tools/file-tools.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
