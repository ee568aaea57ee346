package services_test

import (
	"context"
	"net/url"

	"foozadmin/internal/api"
	"foozadmin/internal/graphql"
	"foozadmin/pkg/rabbitmq"

	"github.com/stretchr/testify/mock"
)

// MockRESTClient is a mock implementation of services.RESTClient
type MockRESTClient struct {
	mock.Mock
}

func (m *MockRESTClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	args := m.Called(path, query, out)
	return args.Error(0)
}

func (m *MockRESTClient) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(path, body, out)
	return args.Error(0)
}

func (m *MockRESTClient) Delete(ctx context.Context, path string, out any) error {
	args := m.Called(path, out)
	return args.Error(0)
}

func (m *MockRESTClient) Upload(ctx context.Context, path string, file api.FilePart, fields map[string]string, out any) error {
	args := m.Called(path, file, fields, out)
	return args.Error(0)
}

// MockGraphQLClient is a mock implementation of services.GraphQLClient
type MockGraphQLClient struct {
	mock.Mock
}

func (m *MockGraphQLClient) Query(ctx context.Context, op graphql.Operation, out any) error {
	args := m.Called(op, out)
	return args.Error(0)
}

func (m *MockGraphQLClient) Mutate(ctx context.Context, op graphql.Operation, out any) error {
	args := m.Called(op, out)
	return args.Error(0)
}

func (m *MockGraphQLClient) Evict(field string) {
	m.Called(field)
}

// MockPublisher is a mock implementation of services.ChangePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishChange(ev rabbitmq.ChangeEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}

// opNamed matches a GraphQL operation by name.
func opNamed(name string) any {
	return mock.MatchedBy(func(op graphql.Operation) bool { return op.OperationName == name })
}
