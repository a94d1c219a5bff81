package audiosweep

import "context"

// Job is one unit of work driven by Run.
type Job interface {
	Name() string
	ExtraConfigLogInfo() []string
	SetStorage(s Storage) error
	TestConnection(ctx context.Context) error
	Run(ctx context.Context) error
}
