package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
)

// cloudinaryAdmin is the subset of the Cloudinary Admin API used here.
type cloudinaryAdmin interface {
	Assets(ctx context.Context, params admin.AssetsParams) (*admin.AssetsResult, error)
	DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error)
	Ping(ctx context.Context) (*admin.PingResult, error)
}

// CloudinaryStore implements MediaStore on the Cloudinary Admin API. It owns
// its client; nothing is configured process-wide.
type CloudinaryStore struct {
	admin cloudinaryAdmin
}

// NewCloudinaryStore creates a client for one Cloudinary account.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, newError(ConfigurationError, "init media store", "", fmt.Errorf("failed to create Cloudinary client: %w", err))
	}
	return &CloudinaryStore{admin: &cld.Admin}, nil
}

// List fetches one page of resources.
func (s *CloudinaryStore) List(ctx context.Context, req ListRequest) (ListPage, error) {
	res, err := s.admin.Assets(ctx, admin.AssetsParams{
		AssetType:    api.AssetType(req.ResourceType),
		DeliveryType: req.DeliveryType,
		MaxResults:   req.PageSize,
		NextCursor:   req.Cursor,
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("failed to list resources: %w", err)
	}
	if res == nil {
		return ListPage{}, errors.New("failed to list resources: empty response")
	}
	if res.Error.Message != "" {
		return ListPage{}, fmt.Errorf("failed to list resources: %s", res.Error.Message)
	}

	page := ListPage{
		Records:    make(RecordSet, 0, len(res.Assets)),
		NextCursor: res.NextCursor,
	}
	for _, a := range res.Assets {
		page.Records = append(page.Records, Record{
			Identifier: a.PublicID,
			CreatedAt:  a.CreatedAt.UTC().Truncate(time.Second),
		})
	}
	return page, nil
}

// Delete removes identifiers of the given resource type.
func (s *CloudinaryStore) Delete(ctx context.Context, resourceType string, identifiers []string) (map[string]string, error) {
	res, err := s.admin.DeleteAssets(ctx, admin.DeleteAssetsParams{
		AssetType:    api.AssetType(resourceType),
		DeliveryType: api.DeliveryType(DefaultDeliveryType),
		PublicIDs:    identifiers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete resources: %w", err)
	}
	if res == nil {
		return nil, errors.New("failed to delete resources: empty response")
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to delete resources: %s", res.Error.Message)
	}
	return res.Deleted, nil
}

// Ping checks credentials against the Admin API.
func (s *CloudinaryStore) Ping(ctx context.Context) error {
	res, err := s.admin.Ping(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach Cloudinary: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("failed to reach Cloudinary: %s", res.Error.Message)
	}
	return nil
}
