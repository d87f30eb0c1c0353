package presence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// statisticsService implements the StatisticsService interface
type statisticsService struct {
	client *Client
}

// PresenceCountByDate returns per-day counts for a period
func (s *statisticsService) PresenceCountByDate(ctx context.Context, start, end time.Time, classID int) ([]*PresenceByDate, error) {
	path := "/statistiques/presences/jour/" + periodQuery(start, end, classID)
	var counts []*PresenceByDate
	if err := s.client.get(ctx, path, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// PresenceCountByClass returns per-class counts for a period
func (s *statisticsService) PresenceCountByClass(ctx context.Context, start, end time.Time) ([]*PresenceByClass, error) {
	path := "/statistiques/presences/classe/" + periodQuery(start, end, 0)
	var counts []*PresenceByClass
	if err := s.client.get(ctx, path, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// AttendanceRateByStudent returns per-student rates for a period
func (s *statisticsService) AttendanceRateByStudent(ctx context.Context, start, end time.Time, classID int) ([]*StudentAttendance, error) {
	path := "/statistiques/assiduite/etudiants/" + periodQuery(start, end, classID)
	var rates []*StudentAttendance
	if err := s.client.get(ctx, path, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// AbsenceAlerts lists students under the threshold rate over the last days
func (s *statisticsService) AbsenceAlerts(ctx context.Context, threshold, days int) ([]*AbsenceAlert, error) {
	if threshold <= 0 {
		threshold = 70
	}
	if days <= 0 {
		days = 30
	}
	path := fmt.Sprintf("/statistiques/alertes/absences/?threshold=%d&days=%d", threshold, days)
	var alerts []*AbsenceAlert
	if err := s.client.get(ctx, path, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// TodaySummary returns the dashboard summary for today
func (s *statisticsService) TodaySummary(ctx context.Context) (*TodayPresenceSummary, error) {
	var summary TodayPresenceSummary
	if err := s.client.get(ctx, "/statistiques/presences/aujourd-hui/", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// periodQuery encodes the optional period filters shared by the statistics
// and export endpoints. Zero values are omitted.
func periodQuery(start, end time.Time, classID int) string {
	params := url.Values{}
	if !start.IsZero() {
		params.Set("start_date", start.Format(dateFormat))
	}
	if !end.IsZero() {
		params.Set("end_date", end.Format(dateFormat))
	}
	if classID != 0 {
		params.Set("classe_id", strconv.Itoa(classID))
	}
	if encoded := params.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}
