package router

import (
	"database/sql"

	"tiendapos/internal/config"
	"tiendapos/internal/handler"
	"tiendapos/internal/infra"
	"tiendapos/internal/metrics"
	"tiendapos/internal/middleware"
	"tiendapos/internal/repository"
	"tiendapos/internal/service"
	"tiendapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// A nil rdb disables the distributed lock and the recaudacion notices.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))

	// ── Repositories ─────────────────────────────────────────────────────────
	txRunner := repository.NewTxRunner(db, sql.LevelReadCommitted)
	stockRepo := repository.NewStockRepository(db)
	catalogoRepo := repository.NewCatalogoRepository(db)
	movStockRepo := repository.NewMovimientoStockRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	devolucionRepo := repository.NewDevolucionRepository(db)
	medioPagoRepo := repository.NewMedioPagoRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var (
		locker   service.Locker
		notifier service.RecaudacionNotifier
	)
	if rdb != nil {
		locker = infra.NewRedisLocker(rdb, cfg.CajaLockTTL)
		notifier = worker.NewDispatcher(rdb, cfg.RecaudacionNotifyEmail)
	}

	stockSvc := service.NewStockService(txRunner, stockRepo, catalogoRepo, movStockRepo)
	ventaSvc := service.NewVentaService(txRunner, ventaRepo, stockRepo, cajaRepo, medioPagoRepo, catalogoRepo, movStockRepo)
	devolucionSvc := service.NewDevolucionService(txRunner, devolucionRepo, ventaRepo, stockRepo, cajaRepo, movStockRepo)
	cajaSvc := service.NewCajaService(txRunner, cajaRepo, locker, notifier)

	// ── Handlers ─────────────────────────────────────────────────────────────
	stockH := handler.NewStockHandler(stockSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	devolucionesH := handler.NewDevolucionesHandler(devolucionSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	if rdb != nil {
		r.GET("/health", handler.Health(db, rdb, mailer))
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	todos := middleware.RequireRole(middleware.RolVendedor, middleware.RolEncargado, middleware.RolAdministrador)
	gestion := middleware.RequireRole(middleware.RolEncargado, middleware.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		stock := v1.Group("/stock")
		{
			stock.GET("", todos, stockH.Listar)
			stock.GET("/buscar", todos, stockH.Buscar)
			stock.GET("/:id/movimientos", todos, stockH.ListarMovimientos)
			stock.POST("", gestion, stockH.Crear)
			stock.PUT("/:id", gestion, stockH.Actualizar)
			stock.DELETE("/:id", gestion, stockH.Eliminar)
			stock.POST("/distribuir", gestion, stockH.Distribuir)
			stock.POST("/transferir", gestion, stockH.Transferir)
			stock.DELETE("/grupo", gestion, stockH.EliminarGrupo)
			stock.DELETE("/producto/:id", middleware.RequireRole(middleware.RolAdministrador), stockH.EliminarProducto)
		}

		ventas := v1.Group("/ventas", todos)
		{
			ventas.POST("/pos", ventasH.RegistrarVenta)
			ventas.POST("/calcular-total", ventasH.CalcularTotal)
			ventas.GET("", ventasH.ListarVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.GET("/:id/devoluciones", devolucionesH.ListarPorVenta)
		}

		devoluciones := v1.Group("/devoluciones", todos)
		{
			devoluciones.POST("", devolucionesH.Registrar)
			devoluciones.GET("/:id", devolucionesH.Obtener)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", todos, cajaH.Abrir)
			caja.GET("/activa", todos, cajaH.Activa)
			caja.POST("/movimientos", todos, cajaH.RegistrarMovimiento)
			caja.GET("/pendientes", gestion, cajaH.ListarPendientes)
			caja.POST("/pendientes/conciliar", gestion, cajaH.ConciliarPendientes)
			caja.POST("/recaudaciones", gestion, cajaH.Recaudar)
			caja.GET("/recaudaciones", gestion, cajaH.ListarRecaudaciones)
			caja.GET("/recaudaciones/:id", gestion, cajaH.ObtenerRecaudacion)
			caja.GET("/:id", todos, cajaH.Obtener)
			caja.GET("/:id/saldo", todos, cajaH.Saldo)
			caja.GET("/:id/movimientos", todos, cajaH.ListarMovimientos)
			caja.GET("/:id/movimientos.xlsx", gestion, cajaH.ExportarMovimientos)
			caja.POST("/:id/cerrar", todos, cajaH.Cerrar)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
