package presence

import (
	"context"
	"time"
)

// AuthService handles the session lifecycle
type AuthService interface {
	// Login exchanges credentials for a token pair and persists the session
	Login(ctx context.Context, username, password string) (*User, error)

	// Logout clears the stored session
	Logout() error

	// Refresh exchanges the stored refresh token for a new access token.
	// Returns false when no refresh was possible; the failed case has
	// already cleared the store.
	Refresh(ctx context.Context) bool

	// CurrentUser returns the cached profile from the stored session
	CurrentUser() (*User, error)

	// IsAuthenticated reports whether a session with an access token is stored
	IsAuthenticated() bool

	// AuthError returns the one-shot session-termination message, if any,
	// and deletes it
	AuthError() string
}

// StudentService handles roster management
type StudentService interface {
	// List retrieves all students
	List(ctx context.Context) ([]*Student, error)

	// Get retrieves a single student by ID
	Get(ctx context.Context, id int) (*Student, error)

	// Create creates a student. An inline base64 photo is stripped from the
	// create payload and registered separately afterwards.
	Create(ctx context.Context, student *Student) (*Student, error)

	// Update updates a student, with the same photo split-out as Create
	Update(ctx context.Context, id int, student *Student) (*Student, error)

	// Delete removes a student
	Delete(ctx context.Context, id int) error

	// Parents lists the guardians linked to a student
	Parents(ctx context.Context, id int) ([]*Parent, error)

	// RegisterFace uploads a base64 photo as the student's biometric reference
	RegisterFace(ctx context.Context, id int, imageData string) error
}

// ClassService handles school classes
type ClassService interface {
	List(ctx context.Context) ([]*Classe, error)
	Get(ctx context.Context, id int) (*Classe, error)
	Create(ctx context.Context, classe *Classe) (*Classe, error)
	Update(ctx context.Context, id int, classe *Classe) (*Classe, error)
	Delete(ctx context.Context, id int) error

	// Students lists the students enrolled in a class
	Students(ctx context.Context, id int) ([]*Student, error)
}

// ParentService handles guardian contacts
type ParentService interface {
	List(ctx context.Context) ([]*Parent, error)
	Get(ctx context.Context, id int) (*Parent, error)
	Create(ctx context.Context, parent *Parent) (*Parent, error)
	Update(ctx context.Context, id int, parent *Parent) (*Parent, error)
	Delete(ctx context.Context, id int) error
}

// AttendanceService handles presence records
type AttendanceService interface {
	// Query returns an attendance query builder
	Query() AttendanceQueryBuilder

	// Get retrieves a single presence record
	Get(ctx context.Context, id int) (*PresenceRecord, error)

	// Register records attendance for a student manually
	Register(ctx context.Context, studentID int, status string) error

	// Update updates a presence record
	Update(ctx context.Context, id int, record *PresenceRecord) (*PresenceRecord, error)

	// Delete removes a presence record
	Delete(ctx context.Context, id int) error

	// Today lists today's presence records
	Today(ctx context.Context) ([]*PresenceRecord, error)
}

// AttendanceQueryBuilder builds filtered presence queries
type AttendanceQueryBuilder interface {
	Between(start, end time.Time) AttendanceQueryBuilder
	ForClass(classID int) AttendanceQueryBuilder
	ForStudent(studentID int) AttendanceQueryBuilder
	WithStatus(status string) AttendanceQueryBuilder
	Limit(limit int) AttendanceQueryBuilder

	// Execute runs the query
	Execute(ctx context.Context) ([]*PresenceRecord, error)
}

// RecognitionService handles the face check-in flow. The camera frame is
// base64-encoded and shipped to the backend, which does all the matching.
type RecognitionService interface {
	// Recognize submits a captured frame for identification. mode is
	// ModeArrival or ModeDeparture.
	Recognize(ctx context.Context, imageData, mode string) (*RecognitionResult, error)
}

// MessageService handles parent notifications over SMS and email
type MessageService interface {
	// SendEmail sends an email to one parent
	SendEmail(ctx context.Context, parentID int, subject, body string) (*MessageResponse, error)

	// SendSMS sends an SMS to one parent
	SendSMS(ctx context.Context, parentID int, body string) (*MessageResponse, error)

	// SendBulkEmail emails every parent of a class, or all parents when
	// classID is zero
	SendBulkEmail(ctx context.Context, subject, body string, classID int) (*MessageResponse, error)

	// SendBulkSMS texts every parent of a class, or all parents when classID
	// is zero
	SendBulkSMS(ctx context.Context, body string, classID int) (*MessageResponse, error)

	// List retrieves all messages
	List(ctx context.Context) ([]*Message, error)

	// Get retrieves a single message
	Get(ctx context.Context, id int) (*Message, error)

	// ByParent lists messages sent to one parent
	ByParent(ctx context.Context, parentID int) ([]*Message, error)

	// ByClass lists messages addressed to one class
	ByClass(ctx context.Context, classID int) ([]*Message, error)

	// Bulk lists group messages
	Bulk(ctx context.Context) ([]*Message, error)

	// Scheduled lists messages queued for later delivery
	Scheduled(ctx context.Context) ([]*Message, error)

	// Create stores a message draft or schedules it for delivery
	Create(ctx context.Context, msg *Message) (*Message, error)

	// Update updates a stored message
	Update(ctx context.Context, id int, msg *Message) (*Message, error)

	// Delete removes a message
	Delete(ctx context.Context, id int) error

	// SendNow dispatches a stored message immediately
	SendNow(ctx context.Context, id int) (*MessageResponse, error)

	// ProcessScheduled dispatches every queued message whose scheduled time
	// has passed
	ProcessScheduled(ctx context.Context) (*MessageResponse, error)

	// MarkAsRead flags a message as read by its recipient
	MarkAsRead(ctx context.Context, id int) (*MessageResponse, error)

	// AddAttachment uploads a file and joins it to a message
	AddAttachment(ctx context.Context, messageID int, fileName, mimeType string, data []byte) (*MessageAttachment, error)

	// Attachments lists the files joined to a message
	Attachments(ctx context.Context, messageID int) ([]*MessageAttachment, error)

	// DeleteAttachment removes an attachment
	DeleteAttachment(ctx context.Context, attachmentID int) error
}

// MessageTemplateService handles reusable message bodies
type MessageTemplateService interface {
	List(ctx context.Context) ([]*MessageTemplate, error)
	Get(ctx context.Context, id int) (*MessageTemplate, error)
	ByType(ctx context.Context, msgType string) ([]*MessageTemplate, error)
	Create(ctx context.Context, tpl *MessageTemplate) (*MessageTemplate, error)
	Update(ctx context.Context, id int, tpl *MessageTemplate) (*MessageTemplate, error)
	Delete(ctx context.Context, id int) error
}

// StatisticsService reads aggregated attendance figures. All aggregation is
// computed server-side; these are thin typed reads.
type StatisticsService interface {
	// PresenceCountByDate returns per-day counts for a period. Zero times and
	// a zero classID mean "unbounded".
	PresenceCountByDate(ctx context.Context, start, end time.Time, classID int) ([]*PresenceByDate, error)

	// PresenceCountByClass returns per-class counts for a period
	PresenceCountByClass(ctx context.Context, start, end time.Time) ([]*PresenceByClass, error)

	// AttendanceRateByStudent returns per-student rates for a period
	AttendanceRateByStudent(ctx context.Context, start, end time.Time, classID int) ([]*StudentAttendance, error)

	// AbsenceAlerts lists students under the threshold rate over the last
	// days. Zero values fall back to 70% over 30 days.
	AbsenceAlerts(ctx context.Context, threshold, days int) ([]*AbsenceAlert, error)

	// TodaySummary returns the dashboard summary for today
	TodaySummary(ctx context.Context) (*TodayPresenceSummary, error)
}

// ExportService builds URLs for backend-rendered report files and can fetch
// them with the client's credentials.
type ExportService interface {
	// PresenceCountByDateURL is the per-day export
	PresenceCountByDateURL(start, end time.Time, classID int, format ExportFormat) string

	// PresenceCountByClassURL is the per-class export
	PresenceCountByClassURL(start, end time.Time, format ExportFormat) string

	// AttendanceRateURL is the per-student rate export
	AttendanceRateURL(start, end time.Time, classID int, format ExportFormat) string

	// AbsenceAlertsURL is the alerts export
	AbsenceAlertsURL(threshold, days int, format ExportFormat) string

	// Download fetches an export with the client's credentials. Returns the
	// file bytes and content type.
	Download(ctx context.Context, url string) ([]byte, string, error)
}
