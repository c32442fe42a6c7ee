package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// RepKPI is the per-representative performance summary.
type RepKPI struct {
	RepID              string  `json:"rep_id"`
	RepName            string  `json:"rep_name"`
	TicketsAssigned    int     `json:"tickets_assigned"`
	TicketsResolved    int     `json:"tickets_resolved"`
	ResolutionRate     float64 `json:"resolution_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

// GlobalKPI aggregates the same math over all tickets.
type GlobalKPI struct {
	TotalTickets       int     `json:"total_tickets"`
	ResolvedTickets    int     `json:"resolved_tickets"`
	ResolutionRate     float64 `json:"resolution_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

// TrendPoint is one calendar day in the created/resolved series.
type TrendPoint struct {
	Date     string `json:"date"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// DashboardStats is the admin landing-page summary.
type DashboardStats struct {
	TotalTickets      int `json:"total_tickets"`
	OpenTickets       int `json:"open_tickets"`
	InProgressTickets int `json:"in_progress_tickets"`
	ClosedTickets     int `json:"closed_tickets"`
	HighPriority      int `json:"high_priority_tickets"`
	CreatedLast7Days  int `json:"created_last_7_days"`
	TotalUsers        int `json:"total_users"`
	TotalReps         int `json:"total_representatives"`
}

const (
	dashboardCacheKey = "kpi:dashboard:stats"
	dashboardCacheTTL = 60 * time.Second
)

// KPIService computes resolution-time and resolution-rate aggregates.
// Representatives may only query their own KPI; everything else is Admin.
type KPIService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	cache   *redis.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewKPIService constructs the service. cache may be nil; caching is then
// skipped entirely.
func NewKPIService(
	tickets repository.TicketRepository,
	users repository.UserRepository,
	cache *redis.Client,
	logger *zap.Logger,
) *KPIService {
	return &KPIService{
		tickets: tickets,
		users:   users,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// RepresentativeKPI computes the KPI for one representative over an optional
// creation-time window.
func (s *KPIService) RepresentativeKPI(ctx context.Context, callerID string, role domain.Role, repID string, from, to *time.Time) (*RepKPI, error) {
	if role == domain.RoleUser {
		return nil, apperrors.NewForbidden("users may not view KPIs")
	}
	if role == domain.RoleRep && callerID != repID {
		return nil, apperrors.NewForbidden("representatives may only view their own KPI")
	}

	rep, err := s.users.GetByID(ctx, repID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if rep.Role != domain.RoleRep {
		return nil, apperrors.NewValidationError("user is not a representative", nil)
	}

	tickets, err := s.tickets.ListForKPI(ctx, repository.KPIFilter{
		AssignedToUserID: &repID,
		CreatedFrom:      from,
		CreatedTo:        to,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	kpi := computeRepKPI(tickets)
	kpi.RepID = rep.ID
	kpi.RepName = rep.Name
	return &kpi, nil
}

// RepresentativeRanking lists every representative's KPI sorted descending
// by resolution rate.
func (s *KPIService) RepresentativeRanking(ctx context.Context, role domain.Role, from, to *time.Time) ([]RepKPI, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may view the performance ranking")
	}

	reps, err := s.users.ListByRole(ctx, domain.RoleRep)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ranking := make([]RepKPI, 0, len(reps))
	for _, rep := range reps {
		repID := rep.ID
		tickets, err := s.tickets.ListForKPI(ctx, repository.KPIFilter{
			AssignedToUserID: &repID,
			CreatedFrom:      from,
			CreatedTo:        to,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		kpi := computeRepKPI(tickets)
		kpi.RepID = rep.ID
		kpi.RepName = rep.Name
		ranking = append(ranking, kpi)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].ResolutionRate > ranking[j].ResolutionRate
	})
	return ranking, nil
}

// Global computes the aggregate KPI over all tickets.
func (s *KPIService) Global(ctx context.Context, role domain.Role) (*GlobalKPI, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may view global KPIs")
	}

	tickets, err := s.tickets.ListForKPI(ctx, repository.KPIFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	resolved := resolvedTickets(tickets)
	return &GlobalKPI{
		TotalTickets:       len(tickets),
		ResolvedTickets:    len(resolved),
		ResolutionRate:     rate(len(resolved), len(tickets)),
		AvgResolutionHours: avgResolutionHours(resolved),
	}, nil
}

// Trends buckets created and resolved counts per calendar day over the last
// days days. days is clamped to [1, 365]; zero means the 30-day default.
func (s *KPIService) Trends(ctx context.Context, role domain.Role, days int) ([]TrendPoint, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may view ticket trends")
	}

	if days == 0 {
		days = 30
	}
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}

	end := s.now()
	start := end.AddDate(0, 0, -(days - 1))
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	// One pass over tickets touched in the window; resolved tickets are
	// bucketed by their last update, created tickets by creation.
	tickets, err := s.tickets.ListForKPI(ctx, repository.KPIFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	created := make(map[string]int, days)
	resolved := make(map[string]int, days)
	for _, t := range tickets {
		if !t.CreatedAt.Before(startDay) {
			created[t.CreatedAt.Format("2006-01-02")]++
		}
		if t.Status == domain.TicketStatusClosed && !t.UpdatedAt.Before(startDay) {
			resolved[t.UpdatedAt.Format("2006-01-02")]++
		}
	}

	points := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		day := startDay.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, TrendPoint{
			Date:     day,
			Created:  created[day],
			Resolved: resolved[day],
		})
	}
	return points, nil
}

// Dashboard returns the admin summary counters, served from Redis for up to
// a minute when a cache is configured.
func (s *KPIService) Dashboard(ctx context.Context, role domain.Role) (*DashboardStats, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may view the dashboard")
	}

	if cached := s.cachedDashboard(ctx); cached != nil {
		return cached, nil
	}

	stats := &DashboardStats{}
	var err error
	if stats.TotalTickets, err = s.tickets.CountAll(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.OpenTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusOpen); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.InProgressTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusInProgress); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.ClosedTickets, err = s.tickets.CountByStatus(ctx, domain.TicketStatusClosed); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.HighPriority, err = s.tickets.CountByPriority(ctx, domain.TicketPriorityHigh); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.CreatedLast7Days, err = s.tickets.CountCreatedSince(ctx, s.now().AddDate(0, 0, -7)); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.TotalUsers, err = s.users.CountAll(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.TotalReps, err = s.users.CountByRole(ctx, domain.RoleRep); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.storeDashboard(ctx, stats)
	return stats, nil
}

func (s *KPIService) cachedDashboard(ctx context.Context) *DashboardStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("dashboard cache decode failed", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *KPIService) storeDashboard(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

func computeRepKPI(tickets []domain.Ticket) RepKPI {
	resolved := resolvedTickets(tickets)
	return RepKPI{
		TicketsAssigned:    len(tickets),
		TicketsResolved:    len(resolved),
		ResolutionRate:     rate(len(resolved), len(tickets)),
		AvgResolutionHours: avgResolutionHours(resolved),
	}
}

func resolvedTickets(tickets []domain.Ticket) []domain.Ticket {
	var result []domain.Ticket
	for _, t := range tickets {
		if t.Status == domain.TicketStatusClosed {
			result = append(result, t)
		}
	}
	return result
}

// rate returns resolved/total as a percentage, 0 when total is zero.
func rate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total) * 100
}

func avgResolutionHours(resolved []domain.Ticket) float64 {
	if len(resolved) == 0 {
		return 0
	}
	var sum float64
	for _, t := range resolved {
		sum += t.ResolutionHours()
	}
	return sum / float64(len(resolved))
}
