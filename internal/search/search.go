package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
)

// Service indexes products into Elasticsearch and answers catalog
// search queries. Without an ES client it falls back to a LIKE query
// against the database.
type Service struct {
	ES       *elasticsearch.Client
	Index    string
	Products *repo.ProductRepo
}

func NewClient(esURL, user, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
		Username:  user,
		Password:  password,
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	return client, nil
}

func (s *Service) IndexProduct(ctx context.Context, p *models.Product) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	body, err := json.Marshal(p)
	if err != nil {
		l.Error("index product failed", "product_id", p.ID, "error", err)
		return
	}

	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		l.Error("index product failed", "product_id", p.ID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("index product failed", "product_id", p.ID, "status", res.Status())
	}
}

func (s *Service) RemoveProduct(ctx context.Context, id uint) {
	if s.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	res, err := s.ES.Delete(
		s.Index,
		strconv.FormatUint(uint64(id), 10),
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		l.Error("remove product from index failed", "product_id", id, "error", err)
		return
	}
	res.Body.Close()
}

func (s *Service) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if s.ES == nil {
		items, err := s.Products.SearchLike(ctx, query)
		if err != nil {
			return 0, nil, err
		}
		return int64(len(items)), items, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "farm"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}
