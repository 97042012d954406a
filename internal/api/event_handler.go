package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"HackathonSync/internal/model"
	"HackathonSync/internal/repository"
	"HackathonSync/internal/service"
	"HackathonSync/internal/status"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventQuerier 读取边界（service.QueryService 实现）
type EventQuerier interface {
	List(ctx context.Context, filter service.ListFilter, sortKey service.SortKey) (*service.ListResult, error)
	Get(ctx context.Context, id string) (*service.EventView, error)
	Stats(ctx context.Context) (*service.Stats, error)
	Tags(ctx context.Context) ([]repository.TagCount, error)
	Sources(ctx context.Context) ([]service.SourceFreshness, error)
}

// EventHandler 提供给前端的赛事查询接口
type EventHandler struct {
	query  EventQuerier
	logger *logrus.Logger
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(query EventQuerier, logger *logrus.Logger) *EventHandler {
	return &EventHandler{query: query, logger: logger}
}

// ListQuery 列表查询参数；source/tag/exclude_tag 可重复出现，也可逗号分隔
type ListQuery struct {
	Sources     []string `form:"source" binding:"omitempty,dive,hackathon_source"`
	Mode        string   `form:"mode" binding:"omitempty,oneof=online in-person hybrid unknown"`
	Q           string   `form:"q" binding:"max=200"`
	Location    string   `form:"location" binding:"max=200"`
	Status      string   `form:"status" binding:"omitempty,oneof=upcoming ongoing ended unknown"`
	Tags        []string `form:"tag"`
	ExcludeTags []string `form:"exclude_tag"`
	HasPrize    *bool    `form:"has_prize"`
	PrizeMin    float64  `form:"prize_min" binding:"gte=0"`
	Sort        string   `form:"sort" binding:"omitempty,oneof=start_date prize title participants deadline relevance"`
	Page        int      `form:"page" binding:"gte=0"`
	PageSize    int      `form:"page_size" binding:"gte=0"`
}

// Filter 转为服务层条件；参数已通过校验
func (q ListQuery) Filter() (service.ListFilter, service.SortKey) {
	f := service.ListFilter{
		Mode:        model.Mode(q.Mode),
		Search:      strings.TrimSpace(q.Q),
		Location:    strings.TrimSpace(q.Location),
		Status:      status.Status(q.Status),
		Tags:        splitList(q.Tags),
		ExcludeTags: splitList(q.ExcludeTags),
		HasPrize:    q.HasPrize,
		PrizeMin:    q.PrizeMin,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	for _, name := range splitList(q.Sources) {
		if src, ok := model.ParseSource(name); ok {
			f.Sources = append(f.Sources, src)
		}
	}
	sortKey, _ := service.ParseSortKey(q.Sort)
	return f, sortKey
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ListEvents 赛事列表
// GET /api/hackathons?status=upcoming&source=devpost&q=ai&sort=prize&page=1&page_size=20
func (h *EventHandler) ListEvents(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	filter, sortKey := q.Filter()
	result, err := h.query.List(c.Request.Context(), filter, sortKey)
	if err != nil {
		h.logger.WithError(err).Error("ListEvents failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEvent 赛事详情（含全部来源）
// GET /api/hackathons/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	view, err := h.query.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "hackathon not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("GetEvent failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetStats GET /api/stats
func (h *EventHandler) GetStats(c *gin.Context) {
	stats, err := h.query.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetStats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTags GET /api/tags
func (h *EventHandler) ListTags(c *gin.Context) {
	tags, err := h.query.Tags(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListTags failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// ListSources 各来源最近一次抓取情况 GET /api/sources
func (h *EventHandler) ListSources(c *gin.Context) {
	sources, err := h.query.Sources(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListSources failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}
