package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Distribuir godoc
// @Summary      Distribuir stock
// @Description  Fija la cantidad de cada talle en uno o más locales. Sobrescribe, no suma.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.DistribuirRequest true "Producto, lugar, estado, locales y talles"
// @Success      200  {object} dto.DistribuirResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stock/distribuir [post]
func (h *StockHandler) Distribuir(c *gin.Context) {
	var req dto.DistribuirRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Distribuir(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transferir godoc
// @Summary      Transferir stock entre grupos
// @Description  Mueve cantidades por talle de un grupo a otro. Suma en el destino; todo o nada.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.TransferirRequest true "grupoOriginal, nuevoGrupo y talles"
// @Success      200  {object} dto.TransferirResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/stock/transferir [post]
func (h *StockHandler) Transferir(c *gin.Context) {
	var req dto.TransferirRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Transferir(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary      Alta manual de stock
// @Description  Si ya existe una fila para la misma combinación, suma la cantidad en ella.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StockRequest true "Combinación y cantidad"
// @Success      201  {object} dto.StockMutacionResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/stock [post]
func (h *StockHandler) Crear(c *gin.Context) {
	var req dto.StockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if resp.Fusionado {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// Actualizar godoc
// @Summary      Editar una fila de stock
// @Description  Si la nueva combinación ya existe en otra fila, las cantidades se fusionan y la fila editada se elimina.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path int              true "ID de stock"
// @Param        body body dto.StockRequest true "Nueva combinación y cantidad"
// @Success      200  {object} dto.StockMutacionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stock/{id} [put]
func (h *StockHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.StockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar una fila de stock
// @Description  Con ventas asociadas la fila se pone en cero en lugar de borrarse (eliminado=false).
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de stock"
// @Success      200 {object} dto.EliminarStockResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/{id} [delete]
func (h *StockHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Eliminar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarGrupo godoc
// @Summary      Eliminar un grupo de stock
// @Description  Rechaza con 409 mientras quede cantidad positiva en el grupo.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.GrupoStockRequest true "Producto, local, lugar y estado"
// @Success      200  {object} dto.EliminarGrupoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/stock/grupo [delete]
func (h *StockHandler) EliminarGrupo(c *gin.Context) {
	var req dto.GrupoStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EliminarGrupo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarProducto godoc
// @Summary      Eliminar un producto con su stock
// @Description  Con historial de ventas el stock queda en cero y el producto pasa a inactivo.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "ID de producto"
// @Success      200 {object} dto.EliminarProductoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/producto/{id} [delete]
func (h *StockHandler) EliminarProducto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.EliminarProducto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar stock
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        producto_id query int  false "Producto"
// @Param        local_id    query int  false "Local"
// @Param        lugar_id    query int  false "Lugar"
// @Param        estado_id   query int  false "Estado"
// @Param        con_stock   query bool false "Solo filas con cantidad > 0"
// @Param        page        query int  false "Página"
// @Param        limit       query int  false "Tamaño de página"
// @Success      200 {object} dto.Paginado[dto.StockResponse]
// @Router       /v1/stock [get]
func (h *StockHandler) Listar(c *gin.Context) {
	var f dto.StockFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Buscar godoc
// @Summary      Buscar stock vendible
// @Description  Busca por nombre de producto o SKU entre filas con cantidad > 0.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        q        query string true  "Texto (mínimo 2 caracteres)"
// @Param        local_id query int    false "Local"
// @Success      200 {array} dto.StockResponse
// @Router       /v1/stock/buscar [get]
func (h *StockHandler) Buscar(c *gin.Context) {
	localID, err := queryUint(c, "local_id")
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.BuscarParaVenta(c.Request.Context(), c.Query("q"), localID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarMovimientos godoc
// @Summary      Auditoría de una fila de stock
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "ID de stock"
// @Param        page  query int false "Página"
// @Param        limit query int false "Tamaño de página"
// @Success      200 {object} dto.Paginado[dto.MovimientoStockResponse]
// @Router       /v1/stock/{id}/movimientos [get]
func (h *StockHandler) ListarMovimientos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p struct {
		Page  int `form:"page"`
		Limit int `form:"limit"`
	}
	if !bindQuery(c, &p) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), id, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
