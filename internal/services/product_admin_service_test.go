package services_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"

	"fiorella/internal/config"
	"fiorella/internal/database"
	"fiorella/internal/forms"
	"fiorella/internal/models"
	"fiorella/internal/repositories"
	"fiorella/internal/services"
	"fiorella/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const imageRoot = "/wwwroot/img"

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(routingKey string, body []byte) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

type adminFixture struct {
	fs         afero.Fs
	store      *storage.ImageStore
	products   *repositories.GORMProductRepository
	categories *repositories.GORMCategoryRepository
	category   *models.Category
	events     *recordingPublisher
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: database.MemoryDSN(uuid.NewString())})
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	store, err := storage.NewImageStore(fs, imageRoot)
	require.NoError(t, err)

	f := &adminFixture{
		fs:         fs,
		store:      store,
		products:   repositories.NewGORMProductRepository(db),
		categories: repositories.NewGORMCategoryRepository(db),
		category:   &models.Category{Name: "Furniture"},
		events:     &recordingPublisher{},
	}
	require.NoError(t, f.categories.Create(context.Background(), f.category))
	return f
}

func (f *adminFixture) service(opts services.AdminOptions) *services.ProductAdminService {
	opts.Events = f.events
	return services.NewProductAdminService(f.products, f.categories, f.store, opts)
}

func (f *adminFixture) blobs(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, imageRoot)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func photo(name string) forms.Photo {
	contentType := "image/jpeg"
	if strings.HasSuffix(name, ".png") {
		contentType = "image/png"
	}
	return forms.Photo{FileName: name, ContentType: contentType, Data: []byte("bytes of " + name)}
}

func chairInput(categoryID uint, photos ...forms.Photo) forms.ProductInput {
	return forms.ProductInput{
		Name:        "Chair",
		Description: "Oak chair",
		Price:       "12,50",
		Count:       "5",
		CategoryID:  strconv.FormatUint(uint64(categoryID), 10),
		Photos:      photos,
	}
}

func TestProductAdminService_Create(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	product, err := service.Create(ctx, chairInput(f.category.ID, photo("img1.jpg")))
	require.NoError(t, err)

	got, err := f.products.GetFullByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.50")), "got %s", got.Price)
	assert.Equal(t, 5, got.Count)
	require.Len(t, got.Images, 1)
	assert.True(t, got.Images[0].IsMain)
	assert.True(t, strings.HasSuffix(got.Images[0].Image, " img1.jpg"))
	assert.NotEqual(t, "img1.jpg", got.Images[0].Image)
	assert.Equal(t, []string{got.Images[0].Image}, f.blobs(t))
	assert.Equal(t, []string{services.EventProductCreated}, f.events.keys)
}

func TestProductAdminService_CreateMarksOnlyFirstImageMain(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	product, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg"), photo("b.png"), photo("c.jpg")))
	require.NoError(t, err)

	got, err := f.products.GetFullByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 3)
	assert.True(t, got.Images[0].IsMain)
	assert.False(t, got.Images[1].IsMain)
	assert.False(t, got.Images[2].IsMain)
	assert.Len(t, f.blobs(t), 3)
}

func TestProductAdminService_CreateCustomMainImagePolicy(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	lastIsMain := func(images []models.ProductImage) {
		for i := range images {
			images[i].IsMain = i == len(images)-1
		}
	}
	service := f.service(services.AdminOptions{MainImage: lastIsMain})

	product, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg"), photo("b.jpg")))
	require.NoError(t, err)
	assert.False(t, product.Images[0].IsMain)
	assert.True(t, product.Images[1].IsMain)
}

func TestProductAdminService_CreateRejectsNonImageWithoutWrites(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	in := chairInput(f.category.ID, photo("a.jpg"), forms.Photo{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("x")})
	_, err := service.Create(ctx, in)

	var ve *forms.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("photos[1].content_type"))
	assert.Empty(t, f.blobs(t))

	count, err := f.products.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.events.keys)
}

func TestProductAdminService_CreateRejectsMalformedPrice(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	for _, price := range []string{"1e3", "12,", "12,555", "9999999999999999,99"} {
		in := chairInput(f.category.ID, photo("a.jpg"))
		in.Price = price

		_, err := service.Create(ctx, in)
		var ve *forms.ValidationError
		require.ErrorAs(t, err, &ve, "price %q", price)
		assert.True(t, ve.Has("price"), "price %q", price)
	}

	count, err := f.products.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.blobs(t))
}

func TestProductAdminService_CreateRequiresPhotos(t *testing.T) {
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	_, err := service.Create(context.Background(), chairInput(f.category.ID))
	var ve *forms.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("photos"))
}

func TestProductAdminService_CreateUnknownCategory(t *testing.T) {
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	_, err := service.Create(context.Background(), chairInput(f.category.ID+100, photo("a.jpg")))
	var ve *forms.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("category_id"))
	assert.Empty(t, f.blobs(t))
}

func TestProductAdminService_CreateRemovesBlobsWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	mockRepo := new(MockProductRepository)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(errors.New("database down")).Once()
	service := services.NewProductAdminService(mockRepo, f.categories, f.store, services.AdminOptions{})

	_, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg"), photo("b.jpg")))
	assert.ErrorContains(t, err, "database down")
	assert.Empty(t, f.blobs(t))
	mockRepo.AssertExpectations(t)
}

func TestProductAdminService_EditWithoutPhotosKeepsImages(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{UpdateScalarsWithPhotos: true})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg"), photo("b.jpg")))
	require.NoError(t, err)
	before, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)

	in := chairInput(f.category.ID)
	in.Name = "Armchair"
	in.Price = "99.90"
	in.Count = "0"
	_, err = service.Edit(ctx, created.ID, in)
	require.NoError(t, err)

	after, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Armchair", after.Name)
	assert.True(t, after.Price.Equal(decimal.RequireFromString("99.9")))
	assert.Equal(t, 0, after.Count)
	assert.Equal(t, before.Images, after.Images)
	assert.ElementsMatch(t, before.ImageNames(), f.blobs(t))
}

func TestProductAdminService_EditWithPhotosReplacesImages(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{UpdateScalarsWithPhotos: true})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("old1.jpg"), photo("old2.jpg")))
	require.NoError(t, err)
	oldNames := created.ImageNames()

	in := chairInput(f.category.ID, photo("new1.png"), photo("new2.png"))
	in.Name = "Renamed"
	_, err = service.Edit(ctx, created.ID, in)
	require.NoError(t, err)

	after, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.Name)
	require.Len(t, after.Images, 2)
	assert.True(t, after.Images[0].IsMain)
	assert.False(t, after.Images[1].IsMain)
	assert.True(t, strings.HasSuffix(after.Images[0].Image, " new1.png"))

	blobs := f.blobs(t)
	assert.ElementsMatch(t, after.ImageNames(), blobs)
	for _, old := range oldNames {
		assert.NotContains(t, blobs, old)
	}
	assert.Equal(t, []string{services.EventProductCreated, services.EventProductUpdated}, f.events.keys)
}

func TestProductAdminService_EditWithPhotosCanIgnoreScalars(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{UpdateScalarsWithPhotos: false})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("old.jpg")))
	require.NoError(t, err)

	in := chairInput(f.category.ID, photo("new.jpg"))
	in.Name = "Ignored"
	in.Count = "77"
	_, err = service.Edit(ctx, created.ID, in)
	require.NoError(t, err)

	after, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chair", after.Name)
	assert.Equal(t, 5, after.Count)
	require.Len(t, after.Images, 1)
	assert.True(t, strings.HasSuffix(after.Images[0].Image, " new.jpg"))
}

func TestProductAdminService_EditRejectsNonImage(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{UpdateScalarsWithPhotos: true})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("old.jpg")))
	require.NoError(t, err)

	in := chairInput(f.category.ID, forms.Photo{FileName: "doc.pdf", ContentType: "application/pdf"})
	_, err = service.Edit(ctx, created.ID, in)
	var ve *forms.ValidationError
	require.ErrorAs(t, err, &ve)

	after, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ImageNames(), after.ImageNames())
	assert.Equal(t, created.ImageNames(), f.blobs(t))
}

func TestProductAdminService_EditNotFound(t *testing.T) {
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	_, err := service.Edit(context.Background(), 404, chairInput(f.category.ID))
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestProductAdminService_EditKeepsOldBlobsWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)

	oldName, err := f.store.Save([]byte("old"), "image/jpeg", "old.jpg")
	require.NoError(t, err)
	existing := &models.Product{
		ID: 7, Name: "Chair", CategoryID: f.category.ID,
		Images: []models.ProductImage{{ID: 1, Image: oldName, IsMain: true, ProductID: 7}},
	}

	mockRepo := new(MockProductRepository)
	mockRepo.On("GetFullByID", ctx, uint(7)).Return(existing, nil).Once()
	mockRepo.On("ReplaceImages", ctx, existing, mock.Anything, true).Return(errors.New("database down")).Once()
	service := services.NewProductAdminService(mockRepo, f.categories, f.store, services.AdminOptions{UpdateScalarsWithPhotos: true})

	_, err = service.Edit(ctx, 7, chairInput(f.category.ID, photo("new.jpg")))
	assert.ErrorContains(t, err, "database down")
	assert.Equal(t, []string{oldName}, f.blobs(t))
	mockRepo.AssertExpectations(t)
}

func TestProductAdminService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg")))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	got, err := f.products.GetFullByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	// blobs stay on disk unless purging is enabled
	assert.Equal(t, created.ImageNames(), f.blobs(t))
	assert.Equal(t, []string{services.EventProductCreated, services.EventProductDeleted}, f.events.keys)

	assert.ErrorIs(t, service.Delete(ctx, created.ID), services.ErrProductNotFound)
}

func TestProductAdminService_DeletePurgesImages(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	service := f.service(services.AdminOptions{PurgeImagesOnDelete: true})

	created, err := service.Create(ctx, chairInput(f.category.ID, photo("a.jpg"), photo("b.jpg")))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))
	assert.Empty(t, f.blobs(t))
}
