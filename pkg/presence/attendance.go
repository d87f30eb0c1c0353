package presence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const dateFormat = "2006-01-02"

// attendanceService implements the AttendanceService interface
type attendanceService struct {
	client *Client
}

// Query returns an attendance query builder
func (a *attendanceService) Query() AttendanceQueryBuilder {
	return &attendanceQuery{client: a.client}
}

// Get retrieves a single presence record
func (a *attendanceService) Get(ctx context.Context, id int) (*PresenceRecord, error) {
	var record PresenceRecord
	if err := a.client.get(ctx, fmt.Sprintf("/presences/%d/", id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Register records attendance for a student manually, outside the
// face-recognition flow.
func (a *attendanceService) Register(ctx context.Context, studentID int, status string) error {
	if status == "" {
		status = StatusPresent
	}
	body := map[string]interface{}{
		"student_id": studentID,
		"status":     status,
	}
	return a.client.post(ctx, "/presences/register/", body, nil)
}

// Update updates a presence record
func (a *attendanceService) Update(ctx context.Context, id int, record *PresenceRecord) (*PresenceRecord, error) {
	var updated PresenceRecord
	if err := a.client.put(ctx, fmt.Sprintf("/presences/%d/", id), record, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a presence record
func (a *attendanceService) Delete(ctx context.Context, id int) error {
	return a.client.del(ctx, fmt.Sprintf("/presences/%d/", id))
}

// Today lists today's presence records
func (a *attendanceService) Today(ctx context.Context) ([]*PresenceRecord, error) {
	var records []*PresenceRecord
	if err := a.client.get(ctx, "/presences/today/", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// attendanceQuery implements AttendanceQueryBuilder
type attendanceQuery struct {
	client    *Client
	start     time.Time
	end       time.Time
	classID   int
	studentID int
	status    string
	limit     int
}

func (q *attendanceQuery) Between(start, end time.Time) AttendanceQueryBuilder {
	q.start = start
	q.end = end
	return q
}

func (q *attendanceQuery) ForClass(classID int) AttendanceQueryBuilder {
	q.classID = classID
	return q
}

func (q *attendanceQuery) ForStudent(studentID int) AttendanceQueryBuilder {
	q.studentID = studentID
	return q
}

func (q *attendanceQuery) WithStatus(status string) AttendanceQueryBuilder {
	q.status = status
	return q
}

func (q *attendanceQuery) Limit(limit int) AttendanceQueryBuilder {
	q.limit = limit
	return q
}

// Execute runs the query
func (q *attendanceQuery) Execute(ctx context.Context) ([]*PresenceRecord, error) {
	params := url.Values{}
	if !q.start.IsZero() {
		params.Set("start_date", q.start.Format(dateFormat))
	}
	if !q.end.IsZero() {
		params.Set("end_date", q.end.Format(dateFormat))
	}
	if q.classID != 0 {
		params.Set("classe_id", strconv.Itoa(q.classID))
	}
	if q.studentID != 0 {
		params.Set("etudiant_id", strconv.Itoa(q.studentID))
	}
	if q.status != "" {
		params.Set("statut", q.status)
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}

	path := "/presences/"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var records []*PresenceRecord
	if err := q.client.get(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}
