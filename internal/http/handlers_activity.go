package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trackr/internal/core"
	"trackr/internal/storage"
)

type calendarCellView struct {
	Date     string
	InYear   bool
	HasEntry bool
	Score    int64
}

type calendarRowView struct {
	Weekday string
	Cells   []calendarCellView
}

type activityView struct {
	ID       int64
	Name     string
	Color    string
	Metrics  []core.Metric
	Calendar []calendarRowView
}

type activitiesPageView struct {
	Year       int
	Activities []activityView
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleActivitiesPage(w, r)
	default:
		MethodNotAllowedError("GET").Write(w)
	}
}

func (s *Server) handleActivitiesPage(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			year = y
		}
	}

	activities, err := s.activities.GetActivities(r.Context(), ownerID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Activities load failed", "error", err)
		http.Error(w, "failed to load activities", http.StatusInternalServerError)
		return
	}

	view := activitiesPageView{Year: year}
	grid := core.BuildCalendar(year)
	for _, a := range activities {
		view.Activities = append(view.Activities, buildActivityView(a, grid))
	}

	s.render(w, r, "activities.html", view)
}

// buildActivityView lays an activity's entries over the heatmap grid.
// Duplicate dates collapse to the earliest entry.
func buildActivityView(a core.ActivityWithEntries, grid core.Calendar) activityView {
	byDate := core.DedupeEntries(a.Entries)

	av := activityView{
		ID:      a.ID,
		Name:    a.Name,
		Color:   a.Color,
		Metrics: a.Metrics,
	}
	for _, row := range grid.Rows {
		rv := calendarRowView{Weekday: row.Weekday.String()[:3]}
		for _, day := range row.Days {
			cell := calendarCellView{
				Date:   core.NormalizeDate(day),
				InYear: day.Year() == grid.Year,
			}
			if e, ok := byDate[cell.Date]; ok {
				cell.HasEntry = true
				cell.Score = e.Score
			}
			rv.Cells = append(rv.Cells, cell)
		}
		av.Calendar = append(av.Calendar, rv)
	}
	return av
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	activity := core.Activity{
		Name:    sanitizeInput(r.Form.Get("name")),
		Color:   sanitizeInput(r.Form.Get("color")),
		OwnerID: ownerID(r.Context()),
	}
	if activity.Color == "" {
		activity.Color = "#22c55e"
	}
	for _, m := range r.Form["metric"] {
		name := sanitizeInput(m)
		if name != "" {
			activity.Metrics = append(activity.Metrics, core.Metric{Name: name})
		}
	}

	id, err := s.activities.CreateActivity(r.Context(), activity)
	if err != nil {
		s.writeCreateError(w, r, err, "activity")
		return
	}

	NewHTMXResponse().
		TriggerRowCreated(storage.EntityActivity, id).
		TriggerFormReset().
		TriggerSuccessNotification("Activity created").
		Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	activityID, err := ParseID(r.Form.Get("activity_id"))
	if err != nil {
		UnprocessableEntityError(errorMessage(err, "entry")).Write(w)
		return
	}
	date, err := ParseEntryDate(r.Form.Get("date"))
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	var score int64
	if v := strings.TrimSpace(r.Form.Get("score")); v != "" {
		score, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			UnprocessableEntityError("Invalid score").Write(w)
			return
		}
	}

	id, err := s.activities.CreateEntry(r.Context(), ownerID(r.Context()), core.Entry{
		ActivityID: activityID,
		Date:       date,
		Score:      score,
	})
	if err != nil {
		s.writeCreateError(w, r, err, "entry")
		return
	}

	NewHTMXResponse().
		TriggerRowCreated(storage.EntityEntry, id).
		TriggerFormReset().
		TriggerSuccessNotification("Entry recorded").
		Write(w)
}
