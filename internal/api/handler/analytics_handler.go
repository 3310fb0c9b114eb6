package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postjournal/pkg/response"
)

const dateLayout = "2006-01-02"

// CommentsDaily 每日评论数与被屏蔽数
// @Summary 每日评论统计
// @Tags 统计
// @Produce json
// @Param date_from query string true "开始日期 YYYY-MM-DD"
// @Param date_to query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]repository.DailyCount}
// @Failure 400 {object} response.Response
// @Router /api/v1/analytics/comments-daily [get]
func (h *Handler) CommentsDaily(c *gin.Context) {
	from, err := time.Parse(dateLayout, c.Query("date_from"))
	if err != nil {
		response.BadRequest(c, "date_from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, c.Query("date_to"))
	if err != nil {
		response.BadRequest(c, "date_to must be YYYY-MM-DD")
		return
	}
	res, err := h.content.DailyComments(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}
