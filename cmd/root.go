package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facewatch",
	Short: "A face recognition attendance tool",
	Long: `Facewatch watches a webcam, recognizes enrolled faces and serves
the annotated video as a browser-friendly MJPEG stream. People are
enrolled from photos; embeddings come from an InsightFace-compatible
face service over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
