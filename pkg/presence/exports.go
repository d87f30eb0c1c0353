package presence

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// exportService implements the ExportService interface. Exports are rendered
// server-side; the client only builds the URL and optionally downloads the
// resulting file with its credentials.
type exportService struct {
	client *Client
}

// PresenceCountByDateURL is the per-day export
func (e *exportService) PresenceCountByDateURL(start, end time.Time, classID int, format ExportFormat) string {
	return e.buildURL("/export/presences/jour/", start, end, classID, format)
}

// PresenceCountByClassURL is the per-class export
func (e *exportService) PresenceCountByClassURL(start, end time.Time, format ExportFormat) string {
	return e.buildURL("/export/presences/classe/", start, end, 0, format)
}

// AttendanceRateURL is the per-student rate export
func (e *exportService) AttendanceRateURL(start, end time.Time, classID int, format ExportFormat) string {
	return e.buildURL("/export/assiduite/etudiants/", start, end, classID, format)
}

// AbsenceAlertsURL is the alerts export
func (e *exportService) AbsenceAlertsURL(threshold, days int, format ExportFormat) string {
	if threshold <= 0 {
		threshold = 70
	}
	if days <= 0 {
		days = 30
	}
	if format == "" {
		format = ExportXLSX
	}

	params := url.Values{}
	params.Set("threshold", strconv.Itoa(threshold))
	params.Set("days", strconv.Itoa(days))
	params.Set("format", string(format))
	return e.client.baseURL + "/export/alertes/absences/?" + params.Encode()
}

// Download fetches an export with the client's credentials
func (e *exportService) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	return e.client.transport.Download(ctx, rawURL)
}

func (e *exportService) buildURL(path string, start, end time.Time, classID int, format ExportFormat) string {
	if format == "" {
		format = ExportXLSX
	}

	params := url.Values{}
	params.Set("format", string(format))
	if !start.IsZero() {
		params.Set("start_date", start.Format(dateFormat))
	}
	if !end.IsZero() {
		params.Set("end_date", end.Format(dateFormat))
	}
	if classID != 0 {
		params.Set("classe_id", strconv.Itoa(classID))
	}
	return e.client.baseURL + path + "?" + params.Encode()
}
