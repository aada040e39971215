package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/modrinth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseSearchFiltersAndStaleness(t *testing.T) {
	var (
		mu     sync.Mutex
		facets []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		facets = append(facets, r.URL.Query().Get("facets"))
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": []models.SearchHit{{ProjectID: "AANobbMI", Slug: "sodium", Title: "Sodium", Downloads: 52000000}},
		})
	}))
	defer srv.Close()

	bs := NewBrowseService(modrinth.NewClient(srv.URL, "test"), logger.Nop())
	ctx := context.Background()

	first, err := bs.Search(ctx, "sodium", SearchFilter{GameVersion: "1.20.1", Loader: models.LoaderFabric})
	require.NoError(t, err)
	assert.True(t, bs.IsLatest(first.ID))
	require.Len(t, first.Hits, 1)
	assert.Equal(t, "Sodium", first.Hits[0].Title)

	second, err := bs.Search(ctx, "", SearchFilter{GameVersion: "1.20.1", Loader: models.LoaderVanilla})
	require.NoError(t, err)
	assert.False(t, bs.IsLatest(first.ID))
	assert.True(t, bs.IsLatest(second.ID))
	assert.Greater(t, second.ID, first.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `[["project_type:mod"],["versions:1.20.1"],["categories:fabric"]]`, facets[0])
	assert.Equal(t, `[["project_type:mod"],["versions:1.20.1"]]`, facets[1])
}

func TestBrowseSearchErrorKeepsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	bs := NewBrowseService(modrinth.NewClient(srv.URL, "test"), logger.Nop())
	res, err := bs.Search(context.Background(), "x", SearchFilter{})
	assert.Error(t, err)
	assert.True(t, bs.IsLatest(res.ID))
}
