package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postjournal/internal/middleware"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/service"
	"github.com/d60-Lab/postjournal/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        userResponse `json:"user"`
}

// Register 注册
// @Summary 注册
// @Tags 账户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response{data=userResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toUser(u))
}

// Login 登录，返回 bearer 令牌
// @Summary 登录
// @Tags 账户
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response{data=loginResponse}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, loginResponse{
		AccessToken: res.Token,
		TokenType:   res.TokenType,
		ExpiresAt:   model.FormatTime(res.ExpiresAt),
		User:        toUser(res.User),
	})
}

// Logout 吊销当前令牌
// @Summary 退出登录
// @Tags 账户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), id.Token); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}
