package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"libraryapi/internal/repository"
)

type MockRepository[T any, P any] struct {
	mock.Mock
}

var _ repository.Repository[struct{}, struct{}] = (*MockRepository[struct{}, struct{}])(nil)

func (m *MockRepository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T, P]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T, P]) UpdateByID(ctx context.Context, id string, patch *P) (*T, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T, P]) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
