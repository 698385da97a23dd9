package sources

import (
	"context"
	"testing"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/stretchr/testify/assert"
)

func Test_APIWorker_WhenResponseIsArray_ShouldCollectItems(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", requestTo("https://jobs.example/api")).
		Return(httpResponse(200, `[
			{"position": "Go Developer", "company": "Acme", "url": "https://jobs.example/1"},
			{"position": "Rust Developer", "company": "Acme", "url": "https://jobs.example/2"}
		]`))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL:      "https://jobs.example/api",
		MaxPages: 1,
	}))

	result := worker.Ingest(context.Background())

	assert.True(result.Success)
	assert.Equal(2, result.JobsFetched)
	assert.Empty(result.Errors)
	assert.Equal("Go Developer", result.Postings[0].Fields["position"])
}

func Test_APIWorker_WhenResponseIsObject_ShouldUseItemsKey(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", requestTo("https://jobs.example/api")).
		Return(httpResponse(200, `{"jobs": [{"title": "Go Developer", "company": "Acme"}]}`))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL:      "https://jobs.example/api",
		ItemsKey: "jobs",
		MaxPages: 1,
	}))

	result := worker.Ingest(context.Background())

	assert.True(result.Success)
	assert.Equal(1, result.JobsFetched)
}

func Test_APIWorker_ShouldPaginateUntilEmptyPage(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", requestTo("https://jobs.example/api?page=1")).
		Return(httpResponse(200, `[{"title": "A", "company": "Acme"}]`))
	mockClient.On("Do", requestTo("https://jobs.example/api?page=2")).
		Return(httpResponse(200, `[{"title": "B", "company": "Acme"}]`))
	mockClient.On("Do", requestTo("https://jobs.example/api?page=3")).
		Return(httpResponse(200, `[]`))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL:       "https://jobs.example/api",
		PageParam: "page",
		MaxPages:  5,
	}))

	result := worker.Ingest(context.Background())

	assert.True(result.Success)
	assert.Equal(2, result.JobsFetched)
	mockClient.AssertNumberOfCalls(t, "Do", 3)
}

func Test_APIWorker_WhenLaterPageFails_ShouldKeepEarlierPages(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", requestTo("https://jobs.example/api?page=1")).
		Return(httpResponse(200, `[{"title": "A", "company": "Acme"}]`))
	mockClient.On("Do", requestTo("https://jobs.example/api?page=2")).
		Return(httpResponse(500, "internal error"))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL:       "https://jobs.example/api",
		PageParam: "page",
		MaxPages:  5,
	}))

	result := worker.Ingest(context.Background())

	assert.True(result.Success)
	assert.Equal(1, result.JobsFetched)
	assert.Len(result.Errors, 1)
	assert.Contains(result.Errors[0], "page 2")
}

func Test_APIWorker_WhenItemIsNotObject_ShouldSkipWithError(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", requestTo("https://jobs.example/api")).
		Return(httpResponse(200, `["legal", {"title": "Go Developer", "company": "Acme"}]`))

	worker := workerWith(t, mockClient, sourceFixture(t, entities.SourceAPI, entities.SourceSettings{
		URL:      "https://jobs.example/api",
		MaxPages: 1,
	}))

	result := worker.Ingest(context.Background())

	assert.True(result.Success)
	assert.Equal(1, result.JobsFetched)
	assert.Len(result.Errors, 1)
}
