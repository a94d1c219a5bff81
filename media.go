package audiosweep

import "context"

// StatusDeleted is the per-identifier status a MediaStore reports for a
// confirmed deletion.
const StatusDeleted = "deleted"

// DefaultDeliveryType is the delivery type listed by the Lister.
const DefaultDeliveryType = "upload"

// ListRequest asks for one page of remote resources.
type ListRequest struct {
	ResourceType string
	DeliveryType string
	PageSize     int
	Cursor       string
}

// ListPage is one page of remote resources. An empty NextCursor marks the
// last page.
type ListPage struct {
	Records    RecordSet
	NextCursor string
}

// MediaStore is the remote media service holding the audio resources.
type MediaStore interface {
	// List returns one page of resources.
	List(ctx context.Context, req ListRequest) (ListPage, error)
	// Delete removes identifiers and returns the status reported for each.
	Delete(ctx context.Context, resourceType string, identifiers []string) (map[string]string, error)
	// Ping verifies credentials and connectivity.
	Ping(ctx context.Context) error
}
