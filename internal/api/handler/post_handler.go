package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postjournal/internal/middleware"
	"github.com/d60-Lab/postjournal/internal/service"
	"github.com/d60-Lab/postjournal/pkg/response"
)

type createPostRequest struct {
	Title             string `json:"title" binding:"required,max=255"`
	Content           string `json:"content" binding:"required"`
	AutoReplyEnabled  bool   `json:"auto_reply_enabled"`
	AutoReplyDelay    *int   `json:"auto_reply_delay" binding:"omitempty,min=0,max=31536000"`
	AutoReplyTemplate string `json:"auto_reply_template"`
}

// CreatePost 发帖；开启自动回复时按 auto_reply_delay（秒）排期
// @Summary 发帖
// @Tags 帖子
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子"
// @Success 201 {object} response.Response{data=postResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	p, _, err := h.content.CreatePost(c.Request.Context(), id.UserID, service.CreatePostInput{
		Title:             req.Title,
		Content:           req.Content,
		AutoReplyEnabled:  req.AutoReplyEnabled,
		AutoReplyDelay:    req.AutoReplyDelay,
		AutoReplyTemplate: req.AutoReplyTemplate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toPost(p))
}

// ListPosts 未屏蔽的帖子，按创建时间倒序
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, pageSize, offset := pageParams(c)
	list, err := h.content.ListPosts(c.Request.Context(), offset, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toPosts(list)})
}

// GetPost 帖子详情；被屏蔽的帖子返回 404
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response{data=postResponse}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	p, err := h.content.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toPost(p))
}

// DeletePost 删除自己的帖子及其评论
// @Summary 删除帖子
// @Tags 帖子
// @Security BearerAuth
// @Produce json
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.content.DeletePost(c.Request.Context(), id.UserID, c.Param("post_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "post deleted"})
}
