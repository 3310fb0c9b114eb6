package handler

import (
	"github.com/d60-Lab/postjournal/internal/model"
)

// 对外输出的时间统一为 model.TimeLayout

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toUser(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: model.FormatTime(u.CreatedAt),
		UpdatedAt: model.FormatTime(u.UpdatedAt),
	}
}

type postResponse struct {
	ID                string `json:"id"`
	AuthorID          string `json:"author_id"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	AutoReplyEnabled  bool   `json:"auto_reply_enabled"`
	AutoReplyDelay    int    `json:"auto_reply_delay"`
	AutoReplyTemplate string `json:"auto_reply_template,omitempty"`
	Blocked           bool   `json:"blocked"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toPost(p *model.Post) postResponse {
	return postResponse{
		ID:                p.ID,
		AuthorID:          p.AuthorID,
		Title:             p.Title,
		Content:           p.Content,
		AutoReplyEnabled:  p.AutoReplyEnabled,
		AutoReplyDelay:    p.AutoReplyDelay,
		AutoReplyTemplate: p.AutoReplyTemplate,
		Blocked:           p.Blocked,
		CreatedAt:         model.FormatTime(p.CreatedAt),
		UpdatedAt:         model.FormatTime(p.UpdatedAt),
	}
}

func toPosts(list []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPost(p))
	}
	return out
}

type commentResponse struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	Blocked   bool   `json:"blocked"`
	AutoReply bool   `json:"auto_reply"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toComment(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		Blocked:   c.Blocked,
		AutoReply: c.AutoReply,
		CreatedAt: model.FormatTime(c.CreatedAt),
		UpdatedAt: model.FormatTime(c.UpdatedAt),
	}
}

func toComments(list []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toComment(c))
	}
	return out
}

type auditRecordResponse struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	Field       string `json:"field"`
	StateBefore string `json:"state_before"`
	StateAfter  string `json:"state_after"`
	Timestamp   string `json:"timestamp"`
}

func toAuditRecords(list []*model.AuditRecord) []auditRecordResponse {
	out := make([]auditRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, auditRecordResponse{
			ID:          r.ID,
			SubjectID:   r.SubjectID,
			Field:       string(r.Field),
			StateBefore: r.StateBefore,
			StateAfter:  r.StateAfter,
			Timestamp:   model.FormatTime(r.Timestamp),
		})
	}
	return out
}
