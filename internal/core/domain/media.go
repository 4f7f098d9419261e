package domain

import (
	"fmt"
	"time"
)

// Image is an uploaded product picture.
type Image struct {
	ID          string    `json:"public_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

var ErrImageNotFound = fmt.Errorf("image %w", ErrNotFound)

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Email is a plain-text transactional message.
type Email struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}
