package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	apperrors "github.com/Uttham-412/Whiteboard/pkg/errors"
	"github.com/Uttham-412/Whiteboard/pkg/validation"

	"github.com/gin-gonic/gin"
)

// BoardHandler exposes board documents over REST. Mutating live sessions is
// out of its reach; it only reads and writes the persisted state.
type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

func (h *BoardHandler) SetupRoutes(router *gin.Engine, authMW gin.HandlerFunc) {
	api := router.Group("/api/v1/boards")
	api.Use(authMW)
	{
		api.POST("", h.CreateBoard)
		api.GET("/:id", h.GetBoard)
		api.PUT("/:id/canvas", h.SaveCanvas)
	}
}

// SaveCanvasRequest carries a full-state save. An empty list clears the board.
type SaveCanvasRequest struct {
	CanvasState []domain.DrawingCommand `json:"canvasState"`
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		c.Error(apperrors.NewUnauthorizedError("missing identity"))
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), username)
	if err != nil {
		h.reportError(c, err)
		return
	}

	c.JSON(http.StatusCreated, board)
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	id, ok := h.boardID(c)
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), id)
	if err != nil {
		h.reportError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) SaveCanvas(c *gin.Context) {
	id, ok := h.boardID(c)
	if !ok {
		return
	}

	var req SaveCanvasRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := h.boardService.SaveCanvas(c.Request.Context(), id, req.CanvasState); err != nil {
		h.reportError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) boardID(c *gin.Context) (domain.SessionID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if err := validation.ValidateSessionID(raw); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return "", false
	}
	return domain.SessionID(raw), true
}

func (h *BoardHandler) reportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrBoardNotFound):
		c.Error(apperrors.NewNotFoundError("board"))
	case errors.Is(err, domain.ErrBoardExists):
		c.Error(apperrors.NewConflictError("board already exists"))
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.Error(apperrors.NewServiceUnavailableError("persistence store unavailable"))
	default:
		c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "operation failed", http.StatusInternalServerError))
	}
}
