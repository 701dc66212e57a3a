package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vendorhub/internal/domain"
	"vendorhub/internal/excel"
	"vendorhub/internal/repository"
	"vendorhub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type createVendorRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.CreateVendor(r.Context(), repository.VendorCreateInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vendor, err := h.svc.GetVendor(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vendors, err := h.svc.ListVendors(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": vendors, "count": len(vendors)})
}

type createCategoryRequest struct {
	Name  string   `json:"name"`
	Tools []string `json:"tools"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.CreateCategory(r.Context(), repository.CategoryCreateInput{
		VendorID: vendorFromContext(r.Context()),
		Name:     req.Name,
		Tools:    req.Tools,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.svc.GetCategory(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	categories, err := h.svc.ListCategories(r.Context(), vendorFromContext(r.Context()), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": categories, "count": len(categories)})
}

type patchCategoryRequest struct {
	Name  *string   `json:"name"`
	Tools *[]string `json:"tools"`
}

func (h *Handler) PatchCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.PatchCategory(r.Context(), vendorFromContext(r.Context()), id, repository.CategoryPatchInput{
		Name:  req.Name,
		Tools: req.Tools,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), vendorFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createProductRequest struct {
	CategoryID  uuid.UUID      `json:"category_id"`
	Tool        string         `json:"tool"`
	Attributes  map[string]any `json:"attributes"`
	Description string         `json:"description"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CategoryID == uuid.Nil {
		writeValidationError(w, domain.FieldError("category_id", "This field is required."))
		return
	}
	h.createProduct(w, r, req)
}

// CreateProductForCategory is the nested form of product creation: the
// category comes from the URL instead of the body.
func (h *Handler) CreateProductForCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CategoryID = categoryID
	h.createProduct(w, r, req)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request, req createProductRequest) {
	created, err := h.svc.CreateProduct(r.Context(), vendorFromContext(r.Context()), service.ProductCreateRequest{
		CategoryID:  req.CategoryID,
		Tool:        req.Tool,
		Attributes:  req.Attributes,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.svc.GetProduct(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ProductTools lists the tools a product could be switched to, i.e. the tool
// list of its category.
func (h *Handler) ProductTools(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vendorID := vendorFromContext(r.Context())
	product, err := h.svc.GetProduct(r.Context(), vendorID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	category, err := h.svc.GetCategory(r.Context(), vendorID, product.CategoryID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tool": product.Tool, "available_tools": category.Tools})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, err := parseOptionalUUID(query.Get("category_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListProducts(r.Context(), vendorFromContext(r.Context()), repository.ProductListFilter{
		Search:     query.Get("search"),
		CategoryID: categoryID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

type patchProductRequest struct {
	Tool        *string         `json:"tool"`
	Attributes  *map[string]any `json:"attributes"`
	Description *string         `json:"description"`
}

func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.PatchProduct(r.Context(), vendorFromContext(r.Context()), id, repository.ProductPatchInput{
		Tool:        req.Tool,
		Attributes:  req.Attributes,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), vendorFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createWarehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.CreateWarehouse(r.Context(), repository.WarehouseCreateInput{
		VendorID: vendorFromContext(r.Context()),
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	warehouse, err := h.svc.GetWarehouse(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouse)
}

func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	warehouses, err := h.svc.ListWarehouses(r.Context(), vendorFromContext(r.Context()), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": warehouses, "count": len(warehouses)})
}

type patchWarehouseRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

func (h *Handler) PatchWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchWarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.PatchWarehouse(r.Context(), vendorFromContext(r.Context()), id, repository.WarehousePatchInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteWarehouse(r.Context(), vendorFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createStockRequest struct {
	ProductID            uuid.UUID        `json:"product_id"`
	WarehouseID          uuid.UUID        `json:"warehouse_id"`
	Quantity             int              `json:"quantity"`
	PurchasePricePerUnit decimal.Decimal  `json:"purchase_price_per_unit"`
	CommissionPercent    *decimal.Decimal `json:"commission_percent"`
}

func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commission := decimal.NewFromInt(10)
	if req.CommissionPercent != nil {
		commission = *req.CommissionPercent
	}
	created, err := h.svc.CreateStock(r.Context(), repository.StockCreateInput{
		VendorID:             vendorFromContext(r.Context()),
		ProductID:            req.ProductID,
		WarehouseID:          req.WarehouseID,
		Quantity:             req.Quantity,
		PurchasePricePerUnit: req.PurchasePricePerUnit,
		CommissionPercent:    commission,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock, err := h.svc.GetStock(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (h *Handler) ListStocks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := parseOptionalUUID(query.Get("product_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	warehouseID, err := parseOptionalUUID(query.Get("warehouse_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stocks, err := h.svc.ListStocks(r.Context(), vendorFromContext(r.Context()), repository.StockListFilter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": stocks, "count": len(stocks)})
}

type patchStockRequest struct {
	Quantity             *int             `json:"quantity"`
	PurchasePricePerUnit *decimal.Decimal `json:"purchase_price_per_unit"`
	CommissionPercent    *decimal.Decimal `json:"commission_percent"`
}

func (h *Handler) PatchStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.PatchStock(r.Context(), vendorFromContext(r.Context()), id, repository.StockPatchInput{
		Quantity:             req.Quantity,
		PurchasePricePerUnit: req.PurchasePricePerUnit,
		CommissionPercent:    req.CommissionPercent,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteStock(r.Context(), vendorFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createMovementRequest struct {
	ProductID       uuid.UUID  `json:"product_id"`
	MovementType    string     `json:"movement_type"`
	FromWarehouseID *uuid.UUID `json:"from_warehouse_id"`
	ToWarehouseID   *uuid.UUID `json:"to_warehouse_id"`
	Quantity        int        `json:"quantity"`
	Remarks         string     `json:"remarks"`
}

func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	applied, err := h.svc.CreateMovement(r.Context(), domain.StockMovement{
		VendorID:        vendorFromContext(r.Context()),
		ProductID:       req.ProductID,
		MovementType:    domain.MovementType(req.MovementType),
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		Remarks:         req.Remarks,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applied)
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := parseOptionalUUID(query.Get("product_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	movements, err := h.svc.ListMovements(r.Context(), vendorFromContext(r.Context()), repository.MovementListFilter{
		ProductID:    productID,
		MovementType: query.Get("movement_type"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": movements, "count": len(movements)})
}

type createSaleRequest struct {
	ProductID           uuid.UUID       `json:"product_id"`
	WarehouseID         uuid.UUID       `json:"warehouse_id"`
	Quantity            int             `json:"quantity"`
	SellingPricePerUnit decimal.Decimal `json:"selling_price_per_unit"`
	Process             bool            `json:"process"`
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.CreateSale(r.Context(), vendorFromContext(r.Context()), service.SaleCreateRequest{
		ProductID:           req.ProductID,
		WarehouseID:         req.WarehouseID,
		Quantity:            req.Quantity,
		SellingPricePerUnit: req.SellingPricePerUnit,
		Process:             req.Process,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, figures, err := h.svc.GetSaleFigures(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale, "figures": figures})
}

func (h *Handler) ProcessSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	processed, err := h.svc.ProcessSale(r.Context(), vendorFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := parseOptionalUUID(query.Get("product_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from time")
		return
	}
	to, err := parseOptionalTime(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to time")
		return
	}
	sales, err := h.svc.ListSales(r.Context(), vendorFromContext(r.Context()), repository.SaleListFilter{
		ProductID: productID,
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sales, "count": len(sales)})
}

func (h *Handler) InventorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.InventorySummary(r.Context(), vendorFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseOptionalInt(r.URL.Query().Get("threshold"), 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.svc.LowStock(r.Context(), vendorFromContext(r.Context()), threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "count": len(rows)})
}

func (h *Handler) ImportStockExcel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	rows, err := excel.ParseStockRows(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.ImportStocks(r.Context(), vendorFromContext(r.Context()), rows)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":  header.Filename,
		"total_rows": len(rows),
		"created":    result.Created,
		"updated":    result.Updated,
		"unmatched":  result.Unmatched,
	})
}

func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from time")
		return
	}
	to, err := parseOptionalTime(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to time")
		return
	}
	summary, err := h.svc.SalesSummary(r.Context(), vendorFromContext(r.Context()), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parsePagination(r *http.Request) (int, int, error) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		return 0, 0, err
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid time")
}

func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id")
	}
	return id, nil
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", raw)
	}
	return &id, nil
}

// respondError maps service and repository errors onto the API error shapes:
// field-level validation failures render as {"errors": {field: [messages]}},
// missing rows as 404, everything else as a 500 with a plain message.
func respondError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, verr)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeValidationError(w http.ResponseWriter, verr *domain.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
