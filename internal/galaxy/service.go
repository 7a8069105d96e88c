package galaxy

import (
	"context"
	"fmt"
	"log/slog"
)

type Service struct {
	repo          *Repository
	maxRouteJumps int
	logger        *slog.Logger
}

func NewService(repo *Repository, maxRouteJumps int, logger *slog.Logger) *Service {
	logger.Debug("Initializing galaxy service")
	if maxRouteJumps <= 0 {
		maxRouteJumps = 3
	}
	return &Service{
		repo:          repo,
		maxRouteJumps: maxRouteJumps,
		logger:        logger,
	}
}

func (s *Service) Repo() *Repository { return s.repo }

// RouteExists checks for a direct corridor first, then a bounded BFS
// over the active graph.
func (s *Service) RouteExists(ctx context.Context, origin, destination int64) (bool, error) {
	logger := s.logger.With("component", "galaxy_service", "operation", "route_exists",
		"origin", origin, "destination", destination)

	direct, err := s.repo.CorridorExistsBetween(ctx, origin, destination)
	if err != nil {
		return false, err
	}
	if direct {
		return true, nil
	}

	graph, err := s.repo.LoadActiveGraph(ctx)
	if err != nil {
		return false, err
	}

	found, err := graph.HasRoute(ctx, origin, destination, s.maxRouteJumps)
	if err != nil {
		return false, err
	}

	logger.Debug("Route search finished", "found", found, "max_jumps", s.maxRouteJumps)
	return found, nil
}

// AnalyzeConnectivity reports components, isolated locations and
// dormant counts over the current corridor graph.
func (s *Service) AnalyzeConnectivity(ctx context.Context) (*ConnectivityReport, error) {
	logger := s.logger.With("component", "galaxy_service", "operation", "analyze_connectivity")
	logger.Info("Analyzing galaxy connectivity")

	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	graph, err := s.repo.LoadActiveGraph(ctx)
	if err != nil {
		return nil, err
	}

	activeCount, err := s.repo.CountCorridors(ctx, true)
	if err != nil {
		return nil, err
	}
	dormantCount, err := s.repo.CountCorridors(ctx, false)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(locations))
	for _, loc := range locations {
		ids = append(ids, loc.ID)
	}

	components := graph.Components(ids)

	var isolated []int64
	for _, loc := range locations {
		if len(graph.Neighbors[loc.ID]) == 0 {
			isolated = append(isolated, loc.ID)
		}
	}

	report := &ConnectivityReport{
		TotalLocations:    len(locations),
		ActiveCorridors:   activeCount,
		DormantCorridors:  dormantCount,
		Components:        components,
		IsolatedLocations: isolated,
	}

	if len(components) > 1 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("galaxy is fragmented into %d components; trigger a corridor shift or activate dormant routes", len(components)))
	}
	if len(isolated) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d locations have no active corridors", len(isolated)))
	}
	if dormantCount == 0 {
		report.Recommendations = append(report.Recommendations,
			"dormant corridor pool is empty; future shifts cannot activate new routes")
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations, "galaxy connectivity is healthy")
	}

	logger.Info("Connectivity analysis complete",
		"components", len(components),
		"isolated", len(isolated),
		"active", activeCount,
		"dormant", dormantCount,
	)
	return report, nil
}
