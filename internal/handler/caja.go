package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/report"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary      Abrir caja
// @Description  Una sola caja abierta por local. Los movimientos pendientes del local se concilian en la nueva caja.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AbrirCajaRequest true "Local y saldo inicial"
// @Success      201  {object} dto.AbrirCajaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	req.UsuarioID = usuarioActual(c, 0)
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary      Cerrar caja
// @Description  Fija fecha de cierre y saldo final (saldo inicial + saldo del libro).
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de caja"
// @Success      200 {object} dto.CajaResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/caja/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener caja
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de caja"
// @Success      200 {object} dto.CajaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/{id} [get]
func (h *CajaHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerCaja(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activa godoc
// @Summary      Caja abierta del local
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        local_id query int true "Local"
// @Success      200 {object} dto.CajaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/activa [get]
func (h *CajaHandler) Activa(c *gin.Context) {
	localID, err := queryUint(c, "local_id")
	if err == nil && localID == nil {
		err = errParam("local_id")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ObtenerAbierta(c.Request.Context(), *localID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Saldo godoc
// @Summary      Saldo de la caja
// @Description  Suma de ingresos menos egresos del libro, recalculada en cada consulta.
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de caja"
// @Success      200 {object} dto.SaldoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/{id}/saldo [get]
func (h *CajaHandler) Saldo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Saldo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary      Movimiento manual de caja
// @Description  Ingreso o egreso manual (gasto, ajuste, otro). Los movimientos no se editan ni se borran.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.MovimientoManualRequest true "Movimiento"
// @Success      201  {object} dto.MovimientoCajaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/caja/movimientos [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos godoc
// @Summary      Libro de la caja
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de caja"
// @Success      200 {array} dto.MovimientoCajaResponse
// @Router       /v1/caja/{id}/movimientos [get]
func (h *CajaHandler) ListarMovimientos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarMovimientos godoc
// @Summary      Exportar el libro de la caja
// @Tags         caja
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id path int true "ID de caja"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/{id}/movimientos.xlsx [get]
func (h *CajaHandler) ExportarMovimientos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportarMovimientos(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=caja_%d_movimientos.xlsx", id))
	c.Data(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}

// ListarPendientes godoc
// @Summary      Movimientos pendientes de un local
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        local_id query int true "Local"
// @Success      200 {array} dto.PendienteResponse
// @Router       /v1/caja/pendientes [get]
func (h *CajaHandler) ListarPendientes(c *gin.Context) {
	localID, err := queryUint(c, "local_id")
	if err == nil && localID == nil {
		err = errParam("local_id")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ListarPendientes(c.Request.Context(), *localID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConciliarPendientes godoc
// @Summary      Conciliar pendientes en la caja abierta
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        local_id query int true "Local"
// @Success      200 {object} map[string]int
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/pendientes/conciliar [post]
func (h *CajaHandler) ConciliarPendientes(c *gin.Context) {
	localID, err := queryUint(c, "local_id")
	if err == nil && localID == nil {
		err = errParam("local_id")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.svc.ConciliarPendientes(c.Request.Context(), *localID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conciliados": n})
}

// Recaudar godoc
// @Summary      Registrar una recaudación
// @Description  Retira efectivo de la caja abierta del local. El monto no puede superar el saldo.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecaudacionRequest true "Local, monto y observaciones"
// @Success      201  {object} dto.RegistrarRecaudacionResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/caja/recaudaciones [post]
func (h *CajaHandler) Recaudar(c *gin.Context) {
	var req dto.RecaudacionRequest
	req.UsuarioID = usuarioActual(c, 0)
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Recaudar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarRecaudaciones godoc
// @Summary      Listar recaudaciones
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        local_id   query int    false "Local"
// @Param        usuario_id query int    false "Usuario"
// @Param        caja_id    query int    false "Caja"
// @Param        desde      query string false "YYYY-MM-DD o RFC 3339"
// @Param        hasta      query string false "YYYY-MM-DD o RFC 3339"
// @Param        page       query int    false "Página"
// @Param        limit      query int    false "Tamaño de página"
// @Success      200 {object} dto.Paginado[dto.RecaudacionResponse]
// @Router       /v1/caja/recaudaciones [get]
func (h *CajaHandler) ListarRecaudaciones(c *gin.Context) {
	var f dto.RecaudacionFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListarRecaudaciones(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerRecaudacion godoc
// @Summary      Obtener una recaudación
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de recaudación"
// @Success      200 {object} dto.RecaudacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/caja/recaudaciones/{id} [get]
func (h *CajaHandler) ObtenerRecaudacion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerRecaudacion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
