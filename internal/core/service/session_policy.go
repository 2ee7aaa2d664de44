package service

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/tracer"
)

// selectEvictionVictims returns the n active sessions with the oldest
// LastActivity. Ties keep their storage order.
func selectEvictionVictims(active []*domain.Session, n int) []*domain.Session {
	if n <= 0 {
		return nil
	}
	ordered := slices.Clone(active)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LastActivity.Before(ordered[j].LastActivity)
	})
	if n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n]
}

// GetSessionStats summarizes the sessions of userID.
func (s *SessionService) GetSessionStats(ctx context.Context, userID int64) (*domain.SessionStats, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}

	devices := make(map[string]struct{})
	locations := make(map[string]struct{})
	clients := make(map[string]struct{})
	stats := &domain.SessionStats{Total: len(sessions)}

	for _, session := range sessions {
		if !session.IsActive {
			continue
		}
		stats.Active++
		devices[session.DeviceType] = struct{}{}
		if session.Location != "" {
			locations[session.Location] = struct{}{}
		}
		if label := clientLabel(session.UserAgent); label != "" {
			clients[label] = struct{}{}
		}
		if stats.LastActivity == nil || session.LastActivity.After(*stats.LastActivity) {
			last := session.LastActivity
			stats.LastActivity = &last
		}
	}

	stats.Devices = sortedKeys(devices)
	stats.Locations = sortedKeys(locations)
	stats.Clients = sortedKeys(clients)
	return stats, nil
}

// DetectSuspiciousActivity evaluates heuristics over the active sessions
// of userID. Alerts are informational and come back in a fixed order:
// multiple locations, max sessions, rapid sessions.
func (s *SessionService) DetectSuspiciousActivity(ctx context.Context, userID int64) (alerts []domain.Alert, err error) {
	ctx, span := tracer.Start(ctx, s.tracer, "session.detect_suspicious", attribute.Int64("user_id", userID))
	defer func() {
		span.SetAttributes(attribute.Int("alerts", len(alerts)))
		tracer.End(span, err)
	}()

	active, err := s.GetActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	alerts = make([]domain.Alert, 0, 3)

	locations := make(map[string]struct{})
	for _, session := range active {
		if session.Location != "" {
			locations[session.Location] = struct{}{}
		}
	}
	if len(locations) > domain.MultipleLocationsThreshold {
		alerts = append(alerts, domain.NewAlert(domain.AlertMultipleLocations))
	}

	if len(active) >= s.maxPerUser {
		alerts = append(alerts, domain.NewAlert(domain.AlertMaxSessions))
	}

	if countCreatedSince(active, s.now().Add(-domain.RapidSessionsWindow)) > domain.RapidSessionsThreshold {
		alerts = append(alerts, domain.NewAlert(domain.AlertRapidSessions))
	}

	for _, a := range alerts {
		s.metrics.IncAlert(string(a.Type))
	}
	if len(alerts) > 0 {
		types := make([]string, len(alerts))
		for i, a := range alerts {
			types[i] = string(a.Type)
		}
		s.logger.WithContext(ctx).Warn("suspicious session activity",
			"user_id", userID,
			"alerts", types)
	}

	return alerts, nil
}

// countCreatedSince counts sessions created strictly after since.
func countCreatedSince(sessions []*domain.Session, since time.Time) int {
	n := 0
	for _, session := range sessions {
		if session.CreatedAt.After(since) {
			n++
		}
	}
	return n
}

// clientLabel renders a user agent as "<browser> on <os>".
func clientLabel(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	switch {
	case browser == "" && os == "":
		return ""
	case os == "":
		return browser
	case browser == "":
		return os
	}
	return browser + " on " + os
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
