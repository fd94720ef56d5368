package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewatch/internal/config"
	"github.com/kozaktomas/facewatch/internal/stream"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run live recognition in a window",
	Long: `Open the webcam and show the annotated video in a native window.

Keys:
  q  quit
  r  reload the enrolled gallery
  t  toggle between the strict and relaxed matching tolerance`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	controller, err := newStreamController(cfg, store)
	if err != nil {
		return err
	}

	fmt.Println("Starting recognition, press q to quit")
	err = controller.RunInteractive(ctx, stream.NewWindow("Facewatch"))
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped")
		return nil
	}
	return err
}
