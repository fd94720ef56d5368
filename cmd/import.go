package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewatch/internal/config"
	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/pipeline"
)

var importCmd = &cobra.Command{
	Use:   "import <folder-path>",
	Short: "Bulk-enroll people from a folder of photos",
	Long: `Enroll every photo in a folder. File names encode the person as
Name_Class_Roll.jpg, with underscores inside the name written as dashes.

Example:
  facewatch import ./photos   # enrolls Alice-Smith_10A_7.jpg and friends`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// parseImportName splits Name_Class_Roll out of a file name. Dashes in the
// name part become spaces.
func parseImportName(file string) (gallery.PersonInput, error) {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return gallery.PersonInput{}, fmt.Errorf("file name %q is not Name_Class_Roll", filepath.Base(file))
	}
	return gallery.PersonInput{
		Name:       strings.ReplaceAll(parts[0], "-", " "),
		ClassName:  parts[1],
		RollNumber: parts[2],
	}, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	entries, err := os.ReadDir(args[0])
	if err != nil {
		return fmt.Errorf("reading folder: %w", err)
	}

	var photos []string
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			photos = append(photos, filepath.Join(args[0], entry.Name()))
		}
	}
	if len(photos) == 0 {
		fmt.Println("No photos found")
		return nil
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	client := newVisionClient(cfg)

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	enrolled := 0
	var failures []string
	for _, photo := range photos {
		bar.Add(1)

		input, err := parseImportName(photo)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
			continue
		}
		img, err := loadImageFile(photo)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
			continue
		}
		vector, err := pipeline.ExtractEmbedding(ctx, client, client, img)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
			continue
		}
		if _, err := store.AddPerson(ctx, input, vector); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(photo), err))
			continue
		}
		enrolled++
	}

	fmt.Printf("\nEnrolled %d of %d photos\n", enrolled, len(photos))
	for _, failure := range failures {
		fmt.Printf("  skipped %s\n", failure)
	}
	return nil
}
