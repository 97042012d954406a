package api

import (
	"context"
	"fmt"
	"net/http"

	"HackathonSync/internal/model"
	"HackathonSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Syncer 手动触发同步（service.SyncService 实现）
type Syncer interface {
	SyncAll(ctx context.Context) (*service.SyncReport, error)
	SyncSources(ctx context.Context, sources ...model.Source) (*service.SyncReport, error)
}

type SyncHandler struct {
	syncer Syncer
	logger *logrus.Logger
}

func NewSyncHandler(syncer Syncer, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, logger: logger}
}

// SyncSourceHandler 同步指定来源
// POST /sync/source/:source
func (h *SyncHandler) SyncSourceHandler(c *gin.Context) {
	name := c.Param("source")
	source, ok := model.ParseSource(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("未知来源: %s", name)})
		return
	}

	report, err := h.syncer.SyncSources(c.Request.Context(), source)
	if err != nil {
		h.logger.Errorf("同步%s失败: %v", source, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s同步成功", source),
		"report":  report,
	})
}

// SyncAllHandler 同步全部启用的来源；部分来源失败时仍返回 200，失败详情见 report
// POST /sync/all
func (h *SyncHandler) SyncAllHandler(c *gin.Context) {
	report, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Errorf("全量同步失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "同步完成", "report": report})
}
