package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// messageService implements the MessageService interface
type messageService struct {
	client *Client
}

// SendEmail sends an email to one parent
func (m *messageService) SendEmail(ctx context.Context, parentID int, subject, body string) (*MessageResponse, error) {
	payload := map[string]string{
		"subject": subject,
		"message": body,
	}
	var resp MessageResponse
	if err := m.client.post(ctx, fmt.Sprintf("/parents/%d/send_email/", parentID), payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendSMS sends an SMS to one parent
func (m *messageService) SendSMS(ctx context.Context, parentID int, body string) (*MessageResponse, error) {
	payload := map[string]string{
		"message": body,
	}
	var resp MessageResponse
	if err := m.client.post(ctx, fmt.Sprintf("/parents/%d/send_sms/", parentID), payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendBulkEmail emails every parent of a class, or all parents when classID
// is zero.
func (m *messageService) SendBulkEmail(ctx context.Context, subject, body string, classID int) (*MessageResponse, error) {
	return m.sendBulk(ctx, "/parents/send_bulk_email/", MessageTypeEmail, subject, body, classID)
}

// SendBulkSMS texts every parent of a class, or all parents when classID is
// zero.
func (m *messageService) SendBulkSMS(ctx context.Context, body string, classID int) (*MessageResponse, error) {
	return m.sendBulk(ctx, "/parents/send_bulk_sms/", MessageTypeSMS, "", body, classID)
}

func (m *messageService) sendBulk(ctx context.Context, path, msgType, subject, body string, classID int) (*MessageResponse, error) {
	payload := map[string]interface{}{
		"type":         msgType,
		"sujet":        subject,
		"contenu":      body,
		"tous_parents": classID == 0,
	}
	if classID != 0 {
		payload["classe_id"] = classID
	}

	var resp MessageResponse
	if err := m.client.post(ctx, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves all messages
func (m *messageService) List(ctx context.Context) ([]*Message, error) {
	var messages []*Message
	if err := m.client.get(ctx, "/messages/", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Get retrieves a single message
func (m *messageService) Get(ctx context.Context, id int) (*Message, error) {
	var msg Message
	if err := m.client.get(ctx, fmt.Sprintf("/messages/%d/", id), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ByParent lists messages sent to one parent
func (m *messageService) ByParent(ctx context.Context, parentID int) ([]*Message, error) {
	var messages []*Message
	if err := m.client.get(ctx, fmt.Sprintf("/messages/by_parent/?parent_id=%d", parentID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ByClass lists messages addressed to one class
func (m *messageService) ByClass(ctx context.Context, classID int) ([]*Message, error) {
	var messages []*Message
	if err := m.client.get(ctx, fmt.Sprintf("/messages/by_classe/?classe_id=%d", classID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Bulk lists group messages
func (m *messageService) Bulk(ctx context.Context) ([]*Message, error) {
	var messages []*Message
	if err := m.client.get(ctx, "/messages/bulk_messages/", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Scheduled lists messages queued for later delivery
func (m *messageService) Scheduled(ctx context.Context) ([]*Message, error) {
	var messages []*Message
	if err := m.client.get(ctx, "/messages/scheduled/", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Create stores a message draft or schedules it for delivery. A tracking ID
// is assigned client-side when absent so delivery receipts can be correlated.
func (m *messageService) Create(ctx context.Context, msg *Message) (*Message, error) {
	payload := *msg
	if payload.TrackingID == "" {
		payload.TrackingID = uuid.NewString()
	}

	var created Message
	if err := m.client.post(ctx, "/messages/", &payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update updates a stored message
func (m *messageService) Update(ctx context.Context, id int, msg *Message) (*Message, error) {
	var updated Message
	if err := m.client.put(ctx, fmt.Sprintf("/messages/%d/", id), msg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a message
func (m *messageService) Delete(ctx context.Context, id int) error {
	return m.client.del(ctx, fmt.Sprintf("/messages/%d/", id))
}

// SendNow dispatches a stored message immediately
func (m *messageService) SendNow(ctx context.Context, id int) (*MessageResponse, error) {
	var resp MessageResponse
	if err := m.client.post(ctx, fmt.Sprintf("/messages/%d/send_now/", id), map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessScheduled dispatches every queued message whose scheduled time has
// passed. Normally the backend's cron does this; the endpoint exists for
// manual runs.
func (m *messageService) ProcessScheduled(ctx context.Context) (*MessageResponse, error) {
	var resp MessageResponse
	if err := m.client.post(ctx, "/messages/process_scheduled/", map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkAsRead flags a message as read by its recipient
func (m *messageService) MarkAsRead(ctx context.Context, id int) (*MessageResponse, error) {
	var resp MessageResponse
	if err := m.client.post(ctx, fmt.Sprintf("/messages/%d/mark_as_read/", id), map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddAttachment uploads a file and joins it to a message. The file goes up as
// multipart form data under the "fichier" field.
func (m *messageService) AddAttachment(ctx context.Context, messageID int, fileName, mimeType string, data []byte) (*MessageAttachment, error) {
	fields := map[string]string{
		"message_id": strconv.Itoa(messageID),
	}
	if fileName != "" {
		fields["nom_fichier"] = fileName
	}

	var att MessageAttachment
	path := fmt.Sprintf("/messages/%d/add_attachment/", messageID)
	if err := m.client.upload(ctx, path, "fichier", fileName, mimeType, data, fields, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// Attachments lists the files joined to a message
func (m *messageService) Attachments(ctx context.Context, messageID int) ([]*MessageAttachment, error) {
	var attachments []*MessageAttachment
	if err := m.client.get(ctx, fmt.Sprintf("/messages/%d/attachments/", messageID), &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// DeleteAttachment removes an attachment
func (m *messageService) DeleteAttachment(ctx context.Context, attachmentID int) error {
	return m.client.del(ctx, fmt.Sprintf("/attachments/%d/", attachmentID))
}

// templateService implements the MessageTemplateService interface
type templateService struct {
	client *Client
}

func (t *templateService) List(ctx context.Context) ([]*MessageTemplate, error) {
	var templates []*MessageTemplate
	if err := t.client.get(ctx, "/message-templates/", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (t *templateService) Get(ctx context.Context, id int) (*MessageTemplate, error) {
	var tpl MessageTemplate
	if err := t.client.get(ctx, fmt.Sprintf("/message-templates/%d/", id), &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (t *templateService) ByType(ctx context.Context, msgType string) ([]*MessageTemplate, error) {
	var templates []*MessageTemplate
	if err := t.client.get(ctx, fmt.Sprintf("/message-templates/by_type/?type=%s", msgType), &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (t *templateService) Create(ctx context.Context, tpl *MessageTemplate) (*MessageTemplate, error) {
	var created MessageTemplate
	if err := t.client.post(ctx, "/message-templates/", tpl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (t *templateService) Update(ctx context.Context, id int, tpl *MessageTemplate) (*MessageTemplate, error) {
	var updated MessageTemplate
	if err := t.client.put(ctx, fmt.Sprintf("/message-templates/%d/", id), tpl, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (t *templateService) Delete(ctx context.Context, id int) error {
	return t.client.del(ctx, fmt.Sprintf("/message-templates/%d/", id))
}
