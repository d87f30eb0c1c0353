package presence

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_PresenceCountByDate(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	var gotPath string
	mockTransport.On("Do", mock.Anything, http.MethodGet,
		mock.MatchedBy(func(path string) bool {
			gotPath = path
			return strings.HasPrefix(path, "/statistiques/presences/jour/")
		}),
		nil, mock.Anything,
	).Return(`[{"day": "2025-09-01", "count": 182}, {"day": "2025-09-02", "count": 176}]`, nil)

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	counts, err := client.Statistics.PresenceCountByDate(context.Background(), start, end, 3)

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 182, counts[0].Count)

	query, err := url.ParseQuery(strings.TrimPrefix(gotPath, "/statistiques/presences/jour/?"))
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", query.Get("start_date"))
	assert.Equal(t, "2025-09-30", query.Get("end_date"))
	assert.Equal(t, "3", query.Get("classe_id"))
}

func TestStatisticsService_PresenceCountByDate_NoFilters(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/statistiques/presences/jour/", nil, mock.Anything).
		Return(`[]`, nil)

	_, err := client.Statistics.PresenceCountByDate(context.Background(), time.Time{}, time.Time{}, 0)

	require.NoError(t, err)
	mockTransport.AssertExpectations(t)
}

func TestStatisticsService_AbsenceAlerts_Defaults(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/statistiques/alertes/absences/?threshold=70&days=30", nil, mock.Anything).
		Return(`[{"etudiant_id": 7, "etudiant_nom": "Diallo", "attendance_rate": 54.2}]`, nil)

	alerts, err := client.Statistics.AbsenceAlerts(context.Background(), 0, 0)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 7, alerts[0].StudentID)
	assert.InDelta(t, 54.2, alerts[0].AttendanceRate, 0.001)
}

func TestStatisticsService_TodaySummary(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	response := `{
		"date": "2025-09-15",
		"total_students": 200,
		"present_students": 184,
		"absent_students": 16,
		"attendance_rate": 92.0,
		"class_presence": [{"classe_nom": "CM2", "count": 28}]
	}`

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/statistiques/presences/aujourd-hui/", nil, mock.Anything).
		Return(response, nil)

	summary, err := client.Statistics.TodaySummary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 200, summary.TotalStudents)
	assert.InDelta(t, 92.0, summary.AttendanceRate, 0.001)
	require.Len(t, summary.ClassPresence, 1)
	assert.Equal(t, "CM2", summary.ClassPresence[0].ClassName)
}
