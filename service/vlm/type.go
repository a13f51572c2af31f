package vlm

import "context"

// IService produces a free-text description of a JPEG frame.
type IService interface {
	Describe(ctx context.Context, jpeg []byte) (string, error)
}
