package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	_ "image/jpeg"
	_ "image/png"

	"github.com/kozaktomas/facewatch/internal/config"
	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/pipeline"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Enroll a person in the gallery",
	Long: `Enroll a person from a photo containing exactly one face.

The photo comes from --image, or from a webcam capture with --camera.

Example:
  facewatch register --image alice.jpg --name "Alice Smith" --class 10A --roll 7`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("image", "", "Path to the enrollment photo")
	registerCmd.Flags().Bool("camera", false, "Capture the enrollment photo from the webcam")
	registerCmd.Flags().String("name", "", "Full name (required)")
	registerCmd.Flags().String("class", "", "Class name")
	registerCmd.Flags().String("roll", "", "Roll number (required)")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("phone", "", "Phone number")
}

// captureFrame grabs a single frame from the configured webcam.
func captureFrame(cfg *config.Config) (image.Image, error) {
	shared := newSharedCamera(cfg)
	if err := shared.Acquire(); err != nil {
		return nil, err
	}
	defer shared.Release()
	return shared.Read()
}

// loadImageFile decodes a JPEG or PNG from disk.
func loadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	imagePath := mustGetString(cmd, "image")
	useCamera := mustGetBool(cmd, "camera")
	if imagePath == "" && !useCamera {
		return errors.New("either --image or --camera is required")
	}

	var img image.Image
	var err error
	if useCamera {
		fmt.Println("Capturing from webcam...")
		img, err = captureFrame(cfg)
	} else {
		img, err = loadImageFile(imagePath)
	}
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	client := newVisionClient(cfg)
	vector, err := pipeline.ExtractEmbedding(ctx, client, client, img)
	if err != nil {
		return fmt.Errorf("extracting face embedding: %w", err)
	}

	input := gallery.PersonInput{
		Name:       mustGetString(cmd, "name"),
		ClassName:  mustGetString(cmd, "class"),
		RollNumber: mustGetString(cmd, "roll"),
		Email:      mustGetString(cmd, "email"),
		Phone:      mustGetString(cmd, "phone"),
	}
	id, err := store.AddPerson(ctx, input, vector)
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", input.Name, err)
	}

	fmt.Printf("Enrolled %s with id %d\n", input.Name, id)
	return nil
}
