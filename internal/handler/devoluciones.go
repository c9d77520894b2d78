package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type DevolucionesHandler struct{ svc service.DevolucionService }

func NewDevolucionesHandler(svc service.DevolucionService) *DevolucionesHandler {
	return &DevolucionesHandler{svc: svc}
}

// Registrar godoc
// @Summary      Registrar una devolución
// @Description  Repone stock por línea y egresa el reintegro de la caja abierta del local, o lo deja pendiente si no hay una.
// @Tags         devoluciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarDevolucionRequest true "Venta y detalles a devolver"
// @Success      201  {object} dto.RegistrarDevolucionResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/devoluciones [post]
func (h *DevolucionesHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarDevolucionRequest
	req.UsuarioID = usuarioActual(c, 0)
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarDevolucion(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary      Obtener una devolución
// @Tags         devoluciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de devolución"
// @Success      200 {object} dto.DevolucionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/devoluciones/{id} [get]
func (h *DevolucionesHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerDevolucion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorVenta godoc
// @Summary      Devoluciones de una venta
// @Tags         devoluciones
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de venta"
// @Success      200 {array} dto.DevolucionResponse
// @Router       /v1/ventas/{id}/devoluciones [get]
func (h *DevolucionesHandler) ListarPorVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorVenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
