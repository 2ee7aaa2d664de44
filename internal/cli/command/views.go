package command

import (
	"fmt"
	"strconv"

	"github.com/fintrackr/fintrackr/internal/cli/output"
	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/infra/buildinfo"
	"github.com/fintrackr/fintrackr/internal/storage"
)

// fieldTable builds a two-column table from name/value pairs.
func fieldTable(pairs ...string) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	for i := 0; i+1 < len(pairs); i += 2 {
		t.AddRow(pairs[i], pairs[i+1])
	}
	return t
}

func status(s *domain.Session) string {
	if s.IsActive {
		return "active"
	}
	return "revoked"
}

type sessionsView []*domain.Session

func (v sessionsView) Table() *output.Table {
	t := output.NewTable("SESSION ID", "USER", "DEVICE", "TYPE", "LOCATION", "IP", "CREATED", "LAST ACTIVITY", "STATUS")
	for _, s := range v {
		t.AddRow(
			s.ID,
			strconv.FormatInt(s.UserID, 10),
			output.Cell(s.DeviceName),
			output.Cell(s.DeviceType),
			output.Cell(s.Location),
			output.Cell(s.IPAddress),
			output.Cell(s.CreatedAt),
			output.Cell(s.LastActivity),
			status(s),
		)
	}
	return t
}

type sessionView struct {
	*domain.Session
}

func (v sessionView) Table() *output.Table {
	s := v.Session
	return fieldTable(
		"session_id", s.ID,
		"user_id", strconv.FormatInt(s.UserID, 10),
		"device_name", output.Cell(s.DeviceName),
		"device_type", output.Cell(s.DeviceType),
		"ip_address", output.Cell(s.IPAddress),
		"user_agent", output.Cell(s.UserAgent),
		"location", output.Cell(s.Location),
		"created_at", output.Cell(s.CreatedAt),
		"last_activity", output.Cell(s.LastActivity),
		"status", status(s),
		"revoked_at", output.Cell(s.RevokedAt),
	)
}

type statsView struct {
	UserID int64 `json:"user_id"`
	*domain.SessionStats
}

func (v statsView) Table() *output.Table {
	return fieldTable(
		"user_id", strconv.FormatInt(v.UserID, 10),
		"total", strconv.Itoa(v.Total),
		"active", strconv.Itoa(v.Active),
		"devices", output.Cell(v.Devices),
		"locations", output.Cell(v.Locations),
		"clients", output.Cell(v.Clients),
		"last_activity", output.Cell(v.LastActivity),
	)
}

type alertsView []domain.Alert

func (v alertsView) Table() *output.Table {
	t := output.NewTable("TYPE", "MESSAGE")
	for _, a := range v {
		t.AddRow(string(a.Type), a.Message)
	}
	return t
}

type cleanupView struct {
	*service.CleanupReport
}

func (v cleanupView) Table() *output.Table {
	r := v.CleanupReport
	return fieldTable(
		"run_id", r.RunID,
		"started_at", output.Cell(r.StartedAt),
		"duration", r.Duration.String(),
		"scanned", strconv.Itoa(r.Scanned),
		"expired", strconv.Itoa(r.Expired),
		"revoked", strconv.Itoa(r.Revoked),
	)
}

// resultView reports the outcome of a mutating command.
type resultView struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	Count     *int   `json:"count,omitempty"`
	Valid     *bool  `json:"valid,omitempty"`
}

func (v resultView) Table() *output.Table {
	pairs := []string{"action", v.Action}
	if v.SessionID != "" {
		pairs = append(pairs, "session_id", v.SessionID)
	}
	if v.UserID != 0 {
		pairs = append(pairs, "user_id", strconv.FormatInt(v.UserID, 10))
	}
	if v.Count != nil {
		pairs = append(pairs, "count", strconv.Itoa(*v.Count))
	}
	if v.Valid != nil {
		pairs = append(pairs, "valid", output.Cell(*v.Valid))
	}
	return fieldTable(pairs...)
}

type versionView buildinfo.Info

func (v versionView) Table() *output.Table {
	return fieldTable(
		"version", v.Version,
		"commit", v.Commit,
		"build_time", v.BuildTime,
		"go_version", v.GoVersion,
		"platform", v.Platform,
	)
}

type systemStatusView struct {
	Engine string               `json:"engine"`
	Total  int                  `json:"total"`
	Active int                  `json:"active"`
	Badger *storage.BadgerStats `json:"badger,omitempty"`
}

func (v systemStatusView) Table() *output.Table {
	t := fieldTable(
		"engine", v.Engine,
		"sessions_total", strconv.Itoa(v.Total),
		"sessions_active", strconv.Itoa(v.Active),
	)
	if v.Badger != nil {
		t.AddRow("lsm_size", humanBytes(v.Badger.LSMSize))
		t.AddRow("value_log_size", humanBytes(v.Badger.ValueLogSize))
		t.AddRow("gc_files_rewritten", strconv.FormatUint(v.Badger.GCRuns, 10))
	}
	return t
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
