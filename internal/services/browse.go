package services

import (
	"context"
	"sync/atomic"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/modrinth"
)

const searchLimit = 30

// SearchResult carries the id of the search that produced it so late
// answers to superseded searches can be dropped.
type SearchResult struct {
	ID   int64
	Hits []models.SearchHit
}

// BrowseService searches the mod repository.
type BrowseService struct {
	repo   ModRepository
	logger logger.Logger
	latest int64
}

func NewBrowseService(repo ModRepository, log logger.Logger) *BrowseService {
	return &BrowseService{repo: repo, logger: log}
}

// SearchFilter restricts a search to a game version and loader. Vanilla
// means no loader filter.
type SearchFilter struct {
	GameVersion string
	Loader      models.LoaderType
}

// Search runs a query and tags the result with a new search id. Only the
// result whose id IsLatest should be shown.
func (bs *BrowseService) Search(ctx context.Context, query string, filter SearchFilter) (SearchResult, error) {
	id := atomic.AddInt64(&bs.latest, 1)

	q := modrinth.SearchQuery{
		Query:  query,
		Loader: filter.Loader.RepositoryName(),
		Limit:  searchLimit,
	}
	if filter.GameVersion != "" {
		q.GameVersions = []string{filter.GameVersion}
	}
	if query == "" {
		q.Index = "downloads"
	}

	hits, err := bs.repo.Search(ctx, q)
	if err != nil {
		return SearchResult{ID: id}, err
	}

	bs.logger.Debug("BrowseService", "search finished", map[string]interface{}{
		"search_id": id,
		"query":     query,
		"hits":      len(hits),
		"stale":     !bs.IsLatest(id),
	})
	return SearchResult{ID: id, Hits: hits}, nil
}

// IsLatest reports whether no search was started after id.
func (bs *BrowseService) IsLatest(id int64) bool {
	return atomic.LoadInt64(&bs.latest) == id
}

func (bs *BrowseService) Project(ctx context.Context, idOrSlug string) (*models.Project, error) {
	return bs.repo.Project(ctx, idOrSlug)
}

// Versions lists the versions of a project usable with filter.
func (bs *BrowseService) Versions(ctx context.Context, projectID string, filter SearchFilter) ([]models.Version, error) {
	var gameVersions []string
	if filter.GameVersion != "" {
		gameVersions = []string{filter.GameVersion}
	}
	return bs.repo.Versions(ctx, projectID, gameVersions, filter.Loader.RepositoryName())
}
