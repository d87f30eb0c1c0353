package presence

import (
	"github.com/presencepro/presencepro-go/internal/session"
	"github.com/presencepro/presencepro-go/internal/types"
)

// Session is the persisted access/refresh/user triple for one authenticated
// context.
type Session = types.Session

// User is the cached profile returned at login.
type User = types.User

// SessionStore is the single source of truth for the Session. Implementations
// must persist the triple atomically on Save and remove it unconditionally on
// Clear. The auth-error slot holds a one-shot message shown on the next login
// prompt.
type SessionStore = session.Store

// NewFileSessionStore returns a store that persists the session as a JSON
// file with 0600 permissions.
func NewFileSessionStore(path string) SessionStore {
	return session.NewFileStore(path)
}

// NewMemorySessionStore returns an in-process store, useful for tests and
// programs that do not want credentials on disk.
func NewMemorySessionStore() SessionStore {
	return session.NewMemoryStore()
}

// Student is one roster entry. Field names mirror the backend's French
// schema.
type Student struct {
	ID            int    `json:"id,omitempty"`
	LastName      string `json:"nom"`
	FirstName     string `json:"prenom"`
	BirthDate     string `json:"date_naissance,omitempty"`
	Sex           string `json:"sexe,omitempty"`
	Address       string `json:"adresse,omitempty"`
	ParentContact string `json:"contact_parent,omitempty"`
	Photo         string `json:"photo,omitempty"`
	Status        string `json:"statut,omitempty"`
	ClassID       int    `json:"classe,omitempty"`
	ClassName     string `json:"classe_nom,omitempty"`
}

// Classe is a school class for one academic year.
type Classe struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"nom"`
	Level       string `json:"niveau,omitempty"`
	Description string `json:"description,omitempty"`
	SchoolYear  string `json:"annee_scolaire,omitempty"`
}

// Parent is a guardian contact linked to a student.
type Parent struct {
	ID                 int    `json:"id,omitempty"`
	LastName           string `json:"nom"`
	FirstName          string `json:"prenom"`
	Phone              string `json:"telephone,omitempty"`
	Email              string `json:"email,omitempty"`
	Relation           string `json:"relation,omitempty"`
	SMSNotifications   bool   `json:"notifications_sms"`
	EmailNotifications bool   `json:"notifications_email"`
	StudentID          int    `json:"etudiant,omitempty"`
}

// Attendance statuses understood by the backend.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "retard"
	StatusExcused = "excusé"
)

// PresenceRecord is one attendance entry for a student on a date.
type PresenceRecord struct {
	ID               int    `json:"id,omitempty"`
	StudentID        int    `json:"etudiant"`
	Date             string `json:"date,omitempty"`
	ArrivalTime      string `json:"heure_arrivee,omitempty"`
	DepartureTime    string `json:"heure_depart,omitempty"`
	Status           string `json:"statut,omitempty"`
	NotificationSent bool   `json:"notification_envoyee,omitempty"`
	Comment          string `json:"commentaire,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
	StudentLastName  string `json:"etudiant_nom,omitempty"`
	StudentFirstName string `json:"etudiant_prenom,omitempty"`
	StudentPhoto     string `json:"etudiant_photo,omitempty"`
	ClassName        string `json:"classe_nom,omitempty"`
}

// Check-in modes for the recognition widget.
const (
	ModeArrival   = "arrivee"
	ModeDeparture = "depart"
)

// RecognitionResult is the backend's answer to a face-recognition capture.
// All matching happens server-side; the client only ships the frame.
type RecognitionResult struct {
	Recognized     bool     `json:"recognized"`
	Student        *Student `json:"student,omitempty"`
	Confidence     float64  `json:"confidence,omitempty"`
	Message        string   `json:"message"`
	AlreadyPresent bool     `json:"already_present,omitempty"`
	PresenceTime   string   `json:"presence_time,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
	Mode           string   `json:"mode,omitempty"`
}

// Message kinds and lifecycle states.
const (
	MessageTypeSMS   = "sms"
	MessageTypeEmail = "email"

	MessageStatusDraft     = "brouillon"
	MessageStatusScheduled = "programme"
	MessageStatusPending   = "en_attente"
	MessageStatusSent      = "envoye"
	MessageStatusFailed    = "echec"
)

// Message is one SMS or email to a parent, possibly scheduled or addressed to
// a whole class.
type Message struct {
	ID           int    `json:"id,omitempty"`
	ParentID     int    `json:"parent,omitempty"`
	Type         string `json:"type"`
	Content      string `json:"contenu"`
	ContentHTML  string `json:"contenu_html,omitempty"`
	CreatedAt    string `json:"date_creation,omitempty"`
	SentAt       string `json:"date_envoi,omitempty"`
	ScheduledFor string `json:"date_programmee,omitempty"`
	Status       string `json:"statut,omitempty"`
	ErrorDetails string `json:"details_erreur,omitempty"`
	IsBulk       bool   `json:"est_message_groupe,omitempty"`
	ClassID      int    `json:"classe,omitempty"`
	Subject      string `json:"sujet,omitempty"`
	TemplateID   int    `json:"template,omitempty"`
	IsRead       bool   `json:"est_lu,omitempty"`
	ReadAt       string `json:"date_lecture,omitempty"`
	TrackingID   string `json:"tracking_id,omitempty"`
}

// MessageAttachment is a file joined to a message. The file travels as a
// multipart upload; fichier holds the server-side storage path afterwards.
type MessageAttachment struct {
	ID        int    `json:"id,omitempty"`
	MessageID int    `json:"message,omitempty"`
	File      string `json:"fichier"`
	FileName  string `json:"nom_fichier"`
	MimeType  string `json:"type_mime"`
	Size      int64  `json:"taille,omitempty"`
	AddedAt   string `json:"date_ajout,omitempty"`
}

// MessageTemplate is a reusable message body with placeholders.
type MessageTemplate struct {
	ID      int    `json:"id,omitempty"`
	Name    string `json:"nom"`
	Type    string `json:"type"`
	Subject string `json:"sujet,omitempty"`
	Content string `json:"contenu"`
}

// MessageResponse is the backend's acknowledgment for send operations.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PresenceByDate is a per-day attendance count.
type PresenceByDate struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PresenceByClass is a per-class attendance count.
type PresenceByClass struct {
	ClassName string `json:"classe_nom"`
	Count     int    `json:"count"`
}

// StudentAttendance is one student's attendance rate over a period.
type StudentAttendance struct {
	StudentID      int     `json:"etudiant_id"`
	LastName       string  `json:"etudiant_nom"`
	FirstName      string  `json:"etudiant_prenom"`
	ClassName      string  `json:"classe_nom"`
	PresenceCount  int     `json:"presence_count"`
	WorkingDays    int     `json:"working_days"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// AbsenceAlert flags a student whose attendance rate fell under a threshold.
type AbsenceAlert = StudentAttendance

// TodayPresenceSummary is the dashboard's at-a-glance view of today.
type TodayPresenceSummary struct {
	Date            string            `json:"date"`
	TotalStudents   int               `json:"total_students"`
	PresentStudents int               `json:"present_students"`
	AbsentStudents  int               `json:"absent_students"`
	AttendanceRate  float64           `json:"attendance_rate"`
	ClassPresence   []PresenceByClass `json:"class_presence"`
}

// ExportFormat selects the file format for backend-rendered reports.
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
)
