package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/vendors", handler.CreateVendor)
		r.Get("/vendors", handler.ListVendors)
		r.Get("/vendors/{id}", handler.GetVendor)

		r.Group(func(r chi.Router) {
			r.Use(RequireVendor)

			r.Get("/categories", handler.ListCategories)
			r.Post("/categories", handler.CreateCategory)
			r.Get("/categories/{id}", handler.GetCategory)
			r.Patch("/categories/{id}", handler.PatchCategory)
			r.Delete("/categories/{id}", handler.DeleteCategory)
			r.Post("/categories/{id}/products", handler.CreateProductForCategory)

			r.Get("/products", handler.ListProducts)
			r.Post("/products", handler.CreateProduct)
			r.Get("/products/{id}", handler.GetProduct)
			r.Get("/products/{id}/tools", handler.ProductTools)
			r.Patch("/products/{id}", handler.PatchProduct)
			r.Delete("/products/{id}", handler.DeleteProduct)

			r.Get("/warehouses", handler.ListWarehouses)
			r.Post("/warehouses", handler.CreateWarehouse)
			r.Get("/warehouses/{id}", handler.GetWarehouse)
			r.Patch("/warehouses/{id}", handler.PatchWarehouse)
			r.Delete("/warehouses/{id}", handler.DeleteWarehouse)

			r.Get("/stocks", handler.ListStocks)
			r.Post("/stocks", handler.CreateStock)
			r.Get("/stocks/{id}", handler.GetStock)
			r.Patch("/stocks/{id}", handler.PatchStock)
			r.Delete("/stocks/{id}", handler.DeleteStock)

			r.Get("/stock-movements", handler.ListMovements)
			r.Post("/stock-movements", handler.CreateMovement)

			r.Get("/sales", handler.ListSales)
			r.Post("/sales", handler.CreateSale)
			r.Get("/sales/{id}", handler.GetSale)
			r.Post("/sales/{id}/process", handler.ProcessSale)

			r.Get("/inventory/summary", handler.InventorySummary)
			r.Get("/inventory/low-stock", handler.LowStock)
			r.Post("/inventory/import-excel", handler.ImportStockExcel)

			r.Get("/reports/sales-summary", handler.SalesSummary)
		})
	})

	return r
}
