package presence

import (
	"context"
	"fmt"
	"strings"
)

// studentService implements the StudentService interface
type studentService struct {
	client *Client
}

// List retrieves all students
func (s *studentService) List(ctx context.Context) ([]*Student, error) {
	var students []*Student
	if err := s.client.get(ctx, "/etudiants/", &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Get retrieves a single student by ID
func (s *studentService) Get(ctx context.Context, id int) (*Student, error) {
	var student Student
	if err := s.client.get(ctx, fmt.Sprintf("/etudiants/%d/", id), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create creates a student. The backend validates the roster fields
// separately from biometric data, so an inline base64 photo is stripped from
// the create payload and registered through the face endpoint afterwards. A
// failed photo registration does not fail the creation.
func (s *studentService) Create(ctx context.Context, student *Student) (*Student, error) {
	payload := *student
	photo := ""
	if isInlinePhoto(payload.Photo) {
		photo = payload.Photo
		payload.Photo = ""
	}

	var created Student
	if err := s.client.post(ctx, "/etudiants/", &payload, &created); err != nil {
		return nil, err
	}

	if photo != "" && created.ID != 0 {
		if err := s.RegisterFace(ctx, created.ID, photo); err != nil {
			if s.client.options.Logger != nil {
				s.client.options.Logger.Warn("student created but photo registration failed", "id", created.ID, "error", err)
			}
		}
	}

	return &created, nil
}

// Update updates a student, with the same photo split-out as Create.
func (s *studentService) Update(ctx context.Context, id int, student *Student) (*Student, error) {
	payload := *student
	photo := ""
	if isInlinePhoto(payload.Photo) {
		photo = payload.Photo
		payload.Photo = ""
	}

	var updated Student
	if err := s.client.put(ctx, fmt.Sprintf("/etudiants/%d/", id), &payload, &updated); err != nil {
		return nil, err
	}

	if photo != "" && updated.ID != 0 {
		if err := s.RegisterFace(ctx, updated.ID, photo); err != nil {
			if s.client.options.Logger != nil {
				s.client.options.Logger.Warn("student updated but photo registration failed", "id", updated.ID, "error", err)
			}
		}
	}

	return &updated, nil
}

// Delete removes a student
func (s *studentService) Delete(ctx context.Context, id int) error {
	return s.client.del(ctx, fmt.Sprintf("/etudiants/%d/", id))
}

// Parents lists the guardians linked to a student
func (s *studentService) Parents(ctx context.Context, id int) ([]*Parent, error) {
	var parents []*Parent
	if err := s.client.get(ctx, fmt.Sprintf("/etudiants/%d/parents/", id), &parents); err != nil {
		return nil, err
	}
	return parents, nil
}

// RegisterFace uploads a base64 photo as the student's biometric reference.
// The backend wants both the full data URI and the bare base64 payload.
func (s *studentService) RegisterFace(ctx context.Context, id int, imageData string) error {
	formatted := ensureDataURI(imageData)
	mimeType, base64Data, err := splitDataURI(formatted)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"image":        formatted,
		"mime_type":    mimeType,
		"base64_data":  base64Data,
		"student_id":   id,
		"update_photo": true,
	}
	return s.client.post(ctx, fmt.Sprintf("/etudiants/%d/register_face/", id), body, nil)
}

// isInlinePhoto distinguishes an embedded base64 image from a short URL or
// storage reference, which travels with the normal payload.
func isInlinePhoto(photo string) bool {
	return strings.HasPrefix(photo, "data:image") || len(photo) > 1000
}
