// api/activity/repository.go
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const eventIndex = "activity-events"

type Repository interface {
	Append(ctx context.Context, event Event) error
	Query(ctx context.Context, query Query) ([]Event, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// Append indexes one immutable event. There is no update or delete path.
func (r *ElasticsearchRepository) Append(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      eventIndex,
		DocumentID: event.ID,
		Body:       strings.NewReader(string(data)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// Query returns events newest-first. Frequency/period clauses match either the
// given value or documents missing the field, so application-level events show
// up in every period's timeline.
func (r *ElasticsearchRepository) Query(ctx context.Context, query Query) ([]Event, error) {
	must := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{
				"application.keyword": query.Application,
			},
		},
	}

	if query.Frequency != "" {
		must = append(must, scopedClause("frequency", query.Frequency))
	}
	if query.Period != "" {
		must = append(must, scopedClause("period", query.Period))
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}},
		},
		"from": query.Offset,
		"size": query.Limit,
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(eventIndex),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var rmap map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&rmap); err != nil {
		return nil, err
	}

	hits := rmap["hits"].(map[string]interface{})["hits"].([]interface{})
	events := make([]Event, len(hits))
	for i, hit := range hits {
		source := hit.(map[string]interface{})["_source"]
		data, _ := json.Marshal(source)
		json.Unmarshal(data, &events[i])
	}

	return events, nil
}

// scopedClause matches docs whose field equals value or lacks the field.
func scopedClause(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"minimum_should_match": 1,
			"should": []interface{}{
				map[string]interface{}{
					"term": map[string]interface{}{field + ".keyword": value},
				},
				map[string]interface{}{
					"bool": map[string]interface{}{
						"must_not": []interface{}{
							map[string]interface{}{
								"exists": map[string]interface{}{"field": field},
							},
						},
					},
				},
			},
		},
	}
}
