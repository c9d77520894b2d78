package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// RegistrarVenta godoc
// @Summary      Registrar una venta de mostrador
// @Description  Transacción ACID: crea la venta y sus detalles, descuenta stock e ingresa el total en la caja abierta del usuario.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Carrito, total y medio de pago"
// @Success      201  {object} dto.RegistrarVentaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/ventas/pos [post]
func (h *VentasHandler) RegistrarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	req.UsuarioID = usuarioActual(c, 0)
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CalcularTotal godoc
// @Summary      Calcular total con medio de pago
// @Description  Aplica el ajuste del medio de pago y el recargo por cuotas a un precio base.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularTotalRequest true "Precio base, medio de pago y cuotas"
// @Success      200  {object} dto.CalcularTotalResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/ventas/calcular-total [post]
func (h *VentasHandler) CalcularTotal(c *gin.Context) {
	var req dto.CalcularTotalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalcularTotal(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerVenta godoc
// @Summary      Obtener una venta
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de venta"
// @Success      200 {object} dto.VentaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id} [get]
func (h *VentasHandler) ObtenerVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVentas godoc
// @Summary      Listar ventas
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        local_id query int    false "Local"
// @Param        caja_id  query int    false "Caja"
// @Param        estado   query string false "confirmada | anulada | all"
// @Param        page     query int    false "Página"
// @Param        limit    query int    false "Tamaño de página"
// @Success      200 {object} dto.Paginado[dto.VentaResponse]
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	var f dto.VentaFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListarVentas(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
