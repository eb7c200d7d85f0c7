package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"callscribe/internal/services"
	"callscribe/internal/utils"
)

type CallHandler struct {
	svc services.CallService
}

func NewCallHandler(svc services.CallService) *CallHandler {
	return &CallHandler{svc: svc}
}

// List returns all call records, newest first. Pending records carry empty
// transcript/summary; done and error records both appear as completed with
// their status field telling them apart.
func (h *CallHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *CallHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CallHandler.Get", "invalid call id", err))
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
