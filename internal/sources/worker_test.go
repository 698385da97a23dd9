package sources

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func httpResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

func requestTo(url string) any {
	return mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == url
	})
}

func sourceFixture(t *testing.T, sourceType entities.SourceType, settings entities.SourceSettings) entities.JobSource {
	source := entities.JobSource{
		SourceKey: "test-source",
		Name:      "Test Source",
		Type:      sourceType,
		Enabled:   true,
	}
	assert.NoError(t, source.SetSettings(settings))
	return source
}

func workerWith(t *testing.T, client HTTPClient, source entities.JobSource) Worker {
	factory := NewFactory(10)
	factory.SetHTTPClient(client)

	worker, err := factory.WorkerFor(source)
	assert.NoError(t, err)
	return worker
}

func Test_Factory_WhenSourceTypeUnknown_ShouldFail(t *testing.T) {

	factory := NewFactory(10)

	_, err := factory.WorkerFor(entities.JobSource{SourceKey: "bad", Type: "soap"})
	assert.Error(t, err)
}

func Test_Factory_WhenResponseNotOK_ShouldFailFetch(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(httpResponse(503, "upstream down"))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL: "https://jobs.example/api",
	}))

	result := worker.Ingest(context.Background())

	assert.False(result.Success)
	assert.Len(result.Errors, 1)
	assert.Contains(result.Errors[0], "status 503")
}
