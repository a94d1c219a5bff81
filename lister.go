package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Listing defaults.
const (
	DefaultPageSize    = 50
	DefaultPageTimeout = 60 * time.Second
)

// ListOptions configures a Lister.
type ListOptions struct {
	Output       string
	ResourceType string
	DeliveryType string
	PageSize     int
	PageTimeout  time.Duration
	ErrorPolicy  ErrorPolicy
}

// Lister pages through the media service and writes every resource to a
// record file.
type Lister struct {
	media   MediaStore
	store   Storage
	opts    ListOptions
	logger  *slog.Logger
	metrics *Metrics
}

// NewLister creates a lister. The storage is set by Run through SetStorage.
func NewLister(media MediaStore, opts ListOptions, logger *slog.Logger, metrics *Metrics) *Lister {
	if opts.Output == "" {
		opts.Output = DefaultListingFile
	}
	if opts.ResourceType == "" {
		opts.ResourceType = DefaultResourceType
	}
	if opts.DeliveryType == "" {
		opts.DeliveryType = DefaultDeliveryType
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if opts.ErrorPolicy == nil {
		opts.ErrorPolicy = DefaultErrorPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Lister{
		media:   media,
		opts:    opts,
		logger:  logger.With("component", "lister"),
		metrics: metrics,
	}
}

func (l *Lister) Name() string {
	return "list"
}

func (l *Lister) ExtraConfigLogInfo() []string {
	return []string{
		fmt.Sprintf("Output: %s", l.opts.Output),
		fmt.Sprintf("Page size: %d", l.opts.PageSize),
		fmt.Sprintf("Page timeout: %s", l.opts.PageTimeout),
	}
}

func (l *Lister) SetStorage(s Storage) error {
	if s == nil {
		return errors.New("storage is nil")
	}
	l.store = s
	return nil
}

func (l *Lister) TestConnection(ctx context.Context) error {
	if err := l.media.Ping(ctx); err != nil {
		return newError(RemoteTransportError, "ping", "", err)
	}
	return nil
}

// Run lists every resource and saves the record file. A failed page
// truncates the listing: what was fetched before it is still saved unless
// remote errors are fatal.
func (l *Lister) Run(ctx context.Context) error {
	if l.store == nil {
		return newError(ConfigurationError, "list", "", errors.New("storage not set"))
	}

	records, err := l.List(ctx)
	if err != nil {
		if l.opts.ErrorPolicy.IsFatal(err) {
			return err
		}
		l.logger.Warn("listing truncated, saving the resources fetched so far", "count", len(records), "error", err)
	}

	if err = SaveRecords(ctx, l.store, l.opts.Output, records); err != nil {
		l.logger.Error("error writing record file", "output", l.store.Location(l.opts.Output), "error", err)
		return err
	}
	l.logger.Info("audio file details saved", "output", l.store.Location(l.opts.Output), "count", len(records))
	return nil
}

// List fetches pages until the cursor is exhausted. On error it returns the
// records fetched so far together with a RemoteTransportError.
func (l *Lister) List(ctx context.Context) (RecordSet, error) {
	ctx, span := tracer().Start(ctx, "list")
	defer span.End()

	l.logger.Info("fetching audio file details", "resource_type", l.opts.ResourceType)

	var (
		records RecordSet
		cursor  string
		pages   int
	)
	for {
		page, err := l.fetchPage(ctx, cursor)
		if err != nil {
			l.metrics.observeListed(len(records))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			l.logger.Error("error fetching resources", "page", pages+1, "error", err)
			return records, newError(RemoteTransportError, "list", "", err)
		}
		pages++
		records = append(records, page.Records...)

		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			err = fmt.Errorf("media service returned the same cursor twice (%s)", cursor)
			l.metrics.observeListed(len(records))
			return records, newError(RemoteTransportError, "list", "", err)
		}
		cursor = page.NextCursor
	}

	span.SetAttributes(attribute.Int("pages", pages), attribute.Int("records", len(records)))
	l.metrics.observeListed(len(records))
	l.logger.Info("fetched audio files", "count", len(records), "pages", pages)
	return records, nil
}

func (l *Lister) fetchPage(ctx context.Context, cursor string) (ListPage, error) {
	var page ListPage
	err := l.opts.ErrorPolicy.retry(ctx, RemoteTransportError, func() error {
		pageCtx, cancel := context.WithTimeout(ctx, l.opts.PageTimeout)
		defer cancel()

		var errList error
		page, errList = l.media.List(pageCtx, ListRequest{
			ResourceType: l.opts.ResourceType,
			DeliveryType: l.opts.DeliveryType,
			PageSize:     l.opts.PageSize,
			Cursor:       cursor,
		})
		if errList != nil {
			l.metrics.observeRemoteError("list")
		}
		return errList
	})
	return page, err
}
