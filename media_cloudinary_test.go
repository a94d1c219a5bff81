package audiosweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdmin struct {
	assetsParams admin.AssetsParams
	assets       *admin.AssetsResult
	assetsErr    error

	deleteParams admin.DeleteAssetsParams
	deleted      *admin.DeleteAssetsResult
	deleteErr    error

	ping    *admin.PingResult
	pingErr error
}

func (s *stubAdmin) Assets(ctx context.Context, params admin.AssetsParams) (*admin.AssetsResult, error) {
	s.assetsParams = params
	return s.assets, s.assetsErr
}

func (s *stubAdmin) DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error) {
	s.deleteParams = params
	return s.deleted, s.deleteErr
}

func (s *stubAdmin) Ping(ctx context.Context) (*admin.PingResult, error) {
	return s.ping, s.pingErr
}

func TestCloudinaryStore_List(t *testing.T) {
	created := time.Date(2024, 11, 14, 18, 52, 40, 700, time.FixedZone("CET", 3600))
	stub := &stubAdmin{assets: &admin.AssetsResult{
		Assets:     []api.BriefAssetResult{{PublicID: "tiktok_audio/intro", CreatedAt: created}},
		NextCursor: "next",
	}}
	s := &CloudinaryStore{admin: stub}

	page, err := s.List(context.Background(), ListRequest{
		ResourceType: "video",
		DeliveryType: DefaultDeliveryType,
		PageSize:     50,
		Cursor:       "prev",
	})
	require.NoError(t, err)

	assert.Equal(t, api.AssetType("video"), stub.assetsParams.AssetType)
	assert.Equal(t, DefaultDeliveryType, stub.assetsParams.DeliveryType)
	assert.Equal(t, 50, stub.assetsParams.MaxResults)
	assert.Equal(t, "prev", stub.assetsParams.NextCursor)

	assert.Equal(t, "next", page.NextCursor)
	require.Len(t, page.Records, 1)
	assert.Equal(t, Record{
		Identifier: "tiktok_audio/intro",
		CreatedAt:  time.Date(2024, 11, 14, 17, 52, 40, 0, time.UTC),
	}, page.Records[0])
}

func TestCloudinaryStore_ListErrors(t *testing.T) {
	s := &CloudinaryStore{admin: &stubAdmin{assetsErr: errors.New("dial tcp: timeout")}}
	_, err := s.List(context.Background(), ListRequest{})
	assert.ErrorContains(t, err, "dial tcp: timeout")

	s = &CloudinaryStore{admin: &stubAdmin{assets: &admin.AssetsResult{Error: api.ErrorResp{Message: "Invalid api_key"}}}}
	_, err = s.List(context.Background(), ListRequest{})
	assert.ErrorContains(t, err, "Invalid api_key")
}

func TestCloudinaryStore_Delete(t *testing.T) {
	stub := &stubAdmin{deleted: &admin.DeleteAssetsResult{Deleted: map[string]string{"a": "deleted"}}}
	s := &CloudinaryStore{admin: stub}

	statuses, err := s.Delete(context.Background(), "video", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": StatusDeleted}, statuses)
	assert.Equal(t, api.AssetType("video"), stub.deleteParams.AssetType)
	assert.Equal(t, api.CldAPIArray{"a"}, stub.deleteParams.PublicIDs)
	assert.Equal(t, api.DeliveryType(DefaultDeliveryType), stub.deleteParams.DeliveryType)
}

func TestCloudinaryStore_DeleteError(t *testing.T) {
	s := &CloudinaryStore{admin: &stubAdmin{deleted: &admin.DeleteAssetsResult{Error: api.ErrorResp{Message: "Rate limit exceeded"}}}}

	_, err := s.Delete(context.Background(), "video", []string{"a"})
	assert.ErrorContains(t, err, "Rate limit exceeded")
}

func TestCloudinaryStore_Ping(t *testing.T) {
	s := &CloudinaryStore{admin: &stubAdmin{ping: &admin.PingResult{}}}
	require.NoError(t, s.Ping(context.Background()))

	s = &CloudinaryStore{admin: &stubAdmin{ping: &admin.PingResult{Error: api.ErrorResp{Message: "Invalid Signature"}}}}
	assert.ErrorContains(t, s.Ping(context.Background()), "Invalid Signature")
}

func TestNewCloudinaryStore(t *testing.T) {
	s, err := NewCloudinaryStore("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, s.admin)
}
