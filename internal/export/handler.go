package export

import (
	"net/http"

	"roommate_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler отдаёт выгрузку хранилища по HTTP.
type Handler struct {
	repo *storage.Repository
	log  *zap.Logger
}

func NewHandler(repo *storage.Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// Export отдаёт выгрузку; ?deleted=true включает удалённые документы.
func (h *Handler) Export(c *gin.Context) {
	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", `attachment; filename="roommate.ndjson.zst"`)
	c.Status(http.StatusOK)
	n, err := Write(c.Request.Context(), h.repo, c.Writer, c.Query("deleted") == "true")
	if err != nil {
		// Заголовки уже отправлены, остаётся только оборвать поток.
		h.log.Error("[EXPORT] выгрузка прервана", zap.Int("documents", n), zap.Error(err))
		c.Abort()
		return
	}
	h.log.Info("[EXPORT] выгрузка завершена", zap.Int("documents", n))
}
