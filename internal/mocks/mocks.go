package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/danylovaolha/chatsync/internal/blob"
	"github.com/danylovaolha/chatsync/internal/changes"
	"github.com/danylovaolha/chatsync/internal/models"
	"github.com/danylovaolha/chatsync/internal/store"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Save(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var saved models.Message
	if val := args.Get(0); val != nil {
		saved = val.(models.Message)
	}
	return saved, args.Error(1)
}

func (m *StoreMock) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoreMock) FindOrdered(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type BlobMock struct {
	mock.Mock
}

func (m *BlobMock) Upload(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

func (m *BlobMock) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) Emit(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *EmitterMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ store.Store = (*StoreMock)(nil)
var _ blob.Storage = (*BlobMock)(nil)
var _ changes.Emitter = (*EmitterMock)(nil)
