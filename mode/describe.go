package mode

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/khaledhikmat/exhibit-guide/pipeline"
)

// Describe sends a single image to the VLM provider and prints the answer.
//
//	exhibit-guide describe <image.jpg>
func Describe(canxCtx context.Context, svcs pipeline.ServicesFactory, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: describe <image.jpg>")
	}

	jpeg, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	color.Cyan("Describing %s ...", args[0])

	text, err := svcs.VlmSvc.Describe(canxCtx, jpeg)
	if err != nil {
		color.Red("VLM request failed: %v", err)
		color.Yellow("Fallback: %s", svcs.CfgSvc.GetDetectorParameters().FallbackUtterance)
		return err
	}

	color.Green("%s", text)
	return nil
}
