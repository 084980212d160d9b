package httputil

import (
	"net/http"

	"roommate_go/internal/apperr"
	"roommate_go/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RespondError отправляет сообщение об ошибке в едином формате и прекращает обработку запроса.
// Используем AbortWithStatusJSON, чтобы последующие обработчики не выполнялись, даже если забыли вернуть управление.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// RespondAppError переводит доменную ошибку в HTTP-ответ вида {"error", "kind"}.
// Ошибки уровня 5xx пишутся в лог целиком, клиенту уходит только краткое сообщение.
func RespondAppError(c *gin.Context, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	metrics.RecordError(string(kind))
	if status >= http.StatusInternalServerError {
		log.Error("[HTTP] запрос завершился ошибкой",
			zap.String("path", c.FullPath()), zap.String("kind", string(kind)), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err), "kind": kind})
}

// ParamID разбирает идентификатор из параметра пути. При ошибке ответ уже отправлен.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "kind": apperr.ValidationFailed})
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON разбирает тело запроса. Тело, не подходящее под сущность, даёт DataShapeError.
func BindJSON(c *gin.Context, log *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondAppError(c, log, apperr.Wrap(apperr.DataShapeError, "bind_request", err))
		return false
	}
	return true
}

// IDsRequest — тело пакетного чтения.
type IDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}
