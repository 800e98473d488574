package probe

import "context"

// GPU samples an NVIDIA GPU. Present is called once at startup; when it
// reports false the GPU checks are skipped for the life of the process.
type GPU interface {
	Present(ctx context.Context) bool
	Read(ctx context.Context) (GPUReading, error)
	Close() error
}
