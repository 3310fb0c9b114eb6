package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postjournal/internal/middleware"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/pkg/response"
)

type updateUsernameRequest struct {
	NewName string `json:"new_name" binding:"required,max=64"`
}

type updateEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email,max=200"`
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,password"`
}

// Me 当前用户
// @Summary 当前用户信息
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=userResponse}
// @Failure 401 {object} response.Response
// @Router /api/v1/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	u, err := h.accounts.Me(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toUser(u))
}

// MeField 当前用户的单个字段
// @Summary 当前用户单个字段
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Param field path string true "字段名" Enums(id, username, email, created_at, updated_at)
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/me/{field} [get]
func (h *Handler) MeField(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	field := c.Param("field")
	v, err := h.accounts.MeField(c.Request.Context(), id.UserID, field)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{field: v})
}

// UpdateUsername 修改用户名并写入审计日志
// @Summary 修改用户名
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateUsernameRequest true "新用户名"
// @Success 200 {object} response.Response{data=userResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/users/me/username [patch]
func (h *Handler) UpdateUsername(c *gin.Context) {
	var req updateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	u, err := h.accounts.UpdateUsername(c.Request.Context(), id.UserID, req.NewName)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toUser(u))
}

// UpdateEmail 修改邮箱并写入审计日志
// @Summary 修改邮箱
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateEmailRequest true "新邮箱"
// @Success 200 {object} response.Response{data=userResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/users/me/email [patch]
func (h *Handler) UpdateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	u, err := h.accounts.UpdateEmail(c.Request.Context(), id.UserID, req.NewEmail)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toUser(u))
}

// UpdatePassword 修改密码；审计日志只记录 ***
// @Summary 修改密码
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updatePasswordRequest true "新密码"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/users/me/password [patch]
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	if _, err := h.accounts.UpdatePassword(c.Request.Context(), id.UserID, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password updated"})
}

// DeleteMe 删除账户及其帖子、评论和审计日志
// @Summary 删除账户
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/me [delete]
func (h *Handler) DeleteMe(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.accounts.DeleteAccount(c.Request.Context(), id.UserID, id.Token); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "account deleted"})
}

// Journal 查询字段变更日志，只能查询自己的
// @Summary 字段变更日志
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Param user_id path string true "用户ID"
// @Param field query string false "字段" Enums(username, email, password)
// @Success 200 {object} response.Response{data=[]auditRecordResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{user_id}/journal [get]
func (h *Handler) Journal(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	subject := c.Param("user_id")
	if subject != id.UserID {
		response.Forbidden(c, "journal is only visible to its owner")
		return
	}

	var field *model.JournalField
	if raw := c.Query("field"); raw != "" {
		f, err := model.ParseJournalField(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		field = &f
	}
	recs, err := h.accounts.Journal().Query(c.Request.Context(), subject, field)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toAuditRecords(recs))
}
