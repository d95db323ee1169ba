package domain

import "time"

// Comment is a message in a ticket thread. Internal comments are staff-only.
type Comment struct {
	ID        string
	TicketID  string
	UserID    string
	Comment   string
	Internal  bool
	System    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CommentView adds the author's display name.
type CommentView struct {
	Comment
	AuthorName string
}

// Attachment records a stored file belonging to one ticket.
type Attachment struct {
	ID               string
	TicketID         string
	UploadedByUserID string
	FileName         string
	FilePath         string
	ContentType      string
	FileSize         int64
	Description      *string
	CreatedAt        time.Time
}
