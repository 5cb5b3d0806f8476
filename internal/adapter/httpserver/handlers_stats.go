package httpserver

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/tukib/snakebot/internal/domain"
	apperrors "github.com/tukib/snakebot/internal/errors"
)

type namespaceStats struct {
	Namespace domain.Namespace `json:"namespace"`
	Keys      int              `json:"keys"`
	Bytes     int              `json:"bytes"`
}

// handleNamespaceStats counts the records of one namespace. Values are never
// returned; they hold message content.
func (s *Server) handleNamespaceStats(c echo.Context) error {
	ns := domain.Namespace(c.Param("namespace"))
	if !slices.Contains(domain.Namespaces, ns) {
		return apperrors.ValidationError("unknown namespace").WithField("namespace", string(ns))
	}

	stats := namespaceStats{Namespace: ns}
	err := s.store.Iterate(c.Request().Context(), ns, func(_ string, value []byte) bool {
		stats.Keys++
		stats.Bytes += len(value)
		return true
	})
	if err != nil {
		return apperrors.InternalError("failed to scan namespace", err).WithField("namespace", string(ns))
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to write stats response: %w", err)
	}
	return nil
}
