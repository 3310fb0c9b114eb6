package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postjournal/internal/middleware"
	"github.com/d60-Lab/postjournal/pkg/response"
)

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComment 评论；帖子不存在 404，帖子被屏蔽 403
// @Summary 发表评论
// @Tags 评论
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param post_id path string true "帖子ID"
// @Param request body createCommentRequest true "评论"
// @Success 201 {object} response.Response{data=commentResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	cm, _, err := h.content.CreateComment(c.Request.Context(), id.UserID, c.Param("post_id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toComment(cm))
}

// ListComments 帖子下未屏蔽的评论
// @Summary 评论列表
// @Tags 评论
// @Produce json
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response{data=[]commentResponse}
// @Router /api/v1/posts/{post_id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	list, err := h.content.ListComments(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toComments(list))
}
