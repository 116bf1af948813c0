package httptransport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	appinventory "github.com/Karthik36929/oms-v6/internal/application/inventory"
	apporder "github.com/Karthik36929/oms-v6/internal/application/order"
	apppayment "github.com/Karthik36929/oms-v6/internal/application/payment"
	appreport "github.com/Karthik36929/oms-v6/internal/application/report"
	domgw "github.com/Karthik36929/oms-v6/internal/domain/gateway"
	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	domorder "github.com/Karthik36929/oms-v6/internal/domain/order"
	dompay "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Server struct {
	engine    *gin.Engine
	inventory *appinventory.Service
	orders    *apporder.Service
	payments  *apppayment.Service
	reports   *appreport.Service
}

func NewServer(
	inventory *appinventory.Service,
	orders *apporder.Service,
	payments *apppayment.Service,
	reports *appreport.Service,
	middleware ...gin.HandlerFunc,
) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	s := &Server{
		engine:    r,
		inventory: inventory,
		orders:    orders,
		payments:  payments,
		reports:   reports,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	api := s.engine.Group("/api")

	items := api.Group("/inventory/items")
	items.POST("", s.provisionItem)
	items.GET("", s.listItems)
	items.GET(":sku", s.getItem)
	items.PUT(":sku/adjust", s.adjustStock)

	orders := api.Group("/orders")
	orders.POST("", s.createOrder)
	orders.GET("", s.listOrders)
	orders.GET(":id", s.getOrder)
	orders.PUT(":id/status", s.updateOrderStatus)
	orders.DELETE(":id", s.cancelOrder)

	payments := api.Group("/payments")
	payments.POST("", s.createPayment)
	payments.GET(":id", s.getPayment)
	payments.POST(":id/capture", s.capturePayment)
	payments.POST(":id/refund", s.refundPayment)

	reports := api.Group("/reports")
	reports.GET("/sales", s.salesReport)
	reports.GET("/inventory/low-stock", s.lowStockReport)
	reports.GET("/payments/summary", s.paymentSummary)
}

// Views

type itemView struct {
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	QuantityAvailable int       `json:"quantityAvailable"`
	QuantityReserved  int       `json:"quantityReserved"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toItemView(i *dominv.Item) itemView {
	return itemView{
		SKU:               i.SKU,
		Name:              i.Name,
		QuantityAvailable: i.QuantityAvailable,
		QuantityReserved:  i.QuantityReserved,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

func toItemViews(items []*dominv.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, i := range items {
		views = append(views, toItemView(i))
	}
	return views
}

type orderView struct {
	ID         int64           `json:"id"`
	CustomerID string          `json:"customerId"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func toOrderView(o *domorder.Order) orderView {
	return orderView{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		SKU:        o.SKU,
		Quantity:   o.Quantity,
		Amount:     o.Amount,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type paymentView struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"orderId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Provider          string          `json:"provider"`
	ExternalReference string          `json:"externalReference"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func toPaymentView(p *dompay.Payment) paymentView {
	return paymentView{
		ID:                p.ID,
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Provider:          p.Provider,
		ExternalReference: p.ExternalReference,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type quoteView struct {
	Provider string          `json:"provider"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Inventory handlers

type provisionItemRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	QuantityAvailable int    `json:"quantityAvailable"`
}

type provisionItemResponse struct {
	Message string   `json:"message"`
	Item    itemView `json:"item"`
}

func (s *Server) provisionItem(c *gin.Context) {
	var req provisionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	item, err := s.inventory.Provision(c.Request.Context(), req.SKU, req.Name, req.QuantityAvailable)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, provisionItemResponse{
		Message: "Inventory item created",
		Item:    toItemView(item),
	})
}

type getItemResponse struct {
	Message string   `json:"message"`
	Item    itemView `json:"item"`
}

func (s *Server) getItem(c *gin.Context) {
	item, err := s.inventory.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, getItemResponse{
		Message: "Inventory item retrieved",
		Item:    toItemView(item),
	})
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

type adjustStockResponse struct {
	Message string   `json:"message"`
	Item    itemView `json:"item"`
}

func (s *Server) adjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	item, err := s.inventory.Adjust(c.Request.Context(), c.Param("sku"), req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, adjustStockResponse{
		Message: "Stock adjusted",
		Item:    toItemView(item),
	})
}

type listItemsResponse struct {
	Message           string     `json:"message"`
	Count             int        `json:"count"`
	Items             []itemView `json:"items"`
	LowStockThreshold int        `json:"lowStockThreshold"`
	LowStockCount     int        `json:"lowStockCount"`
	LowStockItems     []itemView `json:"lowStockItems"`
}

func (s *Server) listItems(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("lowStockThreshold", "0"))
	result, err := s.inventory.List(c.Request.Context(), threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listItemsResponse{
		Message:           "Inventory items listed",
		Count:             len(result.Items),
		Items:             toItemViews(result.Items),
		LowStockThreshold: result.Threshold,
		LowStockCount:     len(result.LowStock),
		LowStockItems:     toItemViews(result.LowStock),
	})
}

// Order handlers

type createOrderRequest struct {
	CustomerID string          `json:"customerId"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
}

type reservationView struct {
	SKU      string `json:"sku"`
	Reserved int    `json:"reserved"`
}

type externalView struct {
	Quote *quoteView `json:"quote,omitempty"`
	Error string     `json:"error,omitempty"`
}

type createOrderResponse struct {
	Message   string          `json:"message"`
	Order     orderView       `json:"order"`
	Inventory reservationView `json:"inventory"`
	External  externalView    `json:"external"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	result, err := s.orders.Create(c.Request.Context(), apporder.CreateOrderInput{
		CustomerID: req.CustomerID,
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		Amount:     req.Amount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	external := externalView{Error: result.QuoteError}
	if result.Quote != nil {
		external.Quote = &quoteView{
			Provider: result.Quote.Provider,
			Currency: result.Quote.Currency,
			Amount:   result.Quote.Amount,
		}
	}
	c.JSON(http.StatusCreated, createOrderResponse{
		Message: "Order created",
		Order:   toOrderView(result.Order),
		Inventory: reservationView{
			SKU:      result.Order.SKU,
			Reserved: result.ReservedQuantity,
		},
		External: external,
	})
}

type getOrderResponse struct {
	Message string    `json:"message"`
	Order   orderView `json:"order"`
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, getOrderResponse{
		Message: "Order retrieved",
		Order:   toOrderView(o),
	})
}

type listOrdersResponse struct {
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Orders  []orderView `json:"orders"`
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.List(c.Request.Context(), c.Query("status"), c.Query("customerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	c.JSON(http.StatusOK, listOrdersResponse{
		Message: "Orders listed",
		Count:   len(views),
		Orders:  views,
	})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type updateOrderStatusResponse struct {
	Message   string `json:"message"`
	OrderID   int64  `json:"orderId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	change, err := s.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updateOrderStatusResponse{
		Message:   "Order status updated",
		OrderID:   change.Order.ID,
		OldStatus: string(change.OldStatus),
		NewStatus: string(change.Order.Status),
	})
}

type cancelOrderResponse struct {
	Message           string  `json:"message"`
	OrderID           int64   `json:"orderId"`
	Status            string  `json:"status"`
	ReleasedQuantity  int     `json:"releasedQuantity"`
	CancelledPayments []int64 `json:"cancelledPayments,omitempty"`
}

func (s *Server) cancelOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := s.orders.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	message := "Order cancelled"
	if result.AlreadyCancelled {
		message = "Order already cancelled"
	}
	c.JSON(http.StatusOK, cancelOrderResponse{
		Message:           message,
		OrderID:           result.Order.ID,
		Status:            string(result.Order.Status),
		ReleasedQuantity:  result.ReleasedQuantity,
		CancelledPayments: result.CancelledPayments,
	})
}

// Payment handlers

type createPaymentRequest struct {
	OrderID  int64           `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type paymentResponse struct {
	Message string      `json:"message"`
	Payment paymentView `json:"payment"`
}

func (s *Server) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	p, err := s.payments.Create(c.Request.Context(), apppayment.CreateInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paymentResponse{
		Message: "Payment authorized",
		Payment: toPaymentView(p),
	})
}

func (s *Server) getPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.payments.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{
		Message: "Payment retrieved",
		Payment: toPaymentView(p),
	})
}

func (s *Server) capturePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.payments.Capture(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{
		Message: "Payment captured",
		Payment: toPaymentView(p),
	})
}

type refundPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type refundPaymentResponse struct {
	Message string          `json:"message"`
	Payment paymentView     `json:"payment"`
	Amount  decimal.Decimal `json:"amount"`
}

func (s *Server) refundPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req refundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidBody(c, err)
		return
	}
	result, err := s.payments.Refund(c.Request.Context(), id, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, refundPaymentResponse{
		Message: "Payment refunded",
		Payment: toPaymentView(result.Payment),
		Amount:  result.Amount,
	})
}

// Report handlers

type salesReportResponse struct {
	Message       string                     `json:"message"`
	From          time.Time                  `json:"from"`
	To            time.Time                  `json:"to"`
	OrderCount    int                        `json:"orderCount"`
	TotalQuantity int                        `json:"totalQuantity"`
	TotalAmount   decimal.Decimal            `json:"totalAmount"`
	QuantityBySKU map[string]int             `json:"quantityBySku"`
	AmountBySKU   map[string]decimal.Decimal `json:"amountBySku"`
}

func (s *Server) salesReport(c *gin.Context) {
	r, err := s.reports.Sales(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesReportResponse{
		Message:       "Sales report generated",
		From:          r.From,
		To:            r.To,
		OrderCount:    r.OrderCount,
		TotalQuantity: r.TotalQuantity,
		TotalAmount:   r.TotalAmount,
		QuantityBySKU: r.QuantityBySKU,
		AmountBySKU:   r.AmountBySKU,
	})
}

type lowStockReportResponse struct {
	Message   string     `json:"message"`
	Threshold int        `json:"threshold"`
	Count     int        `json:"count"`
	Items     []itemView `json:"items"`
}

func (s *Server) lowStockReport(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "0"))
	r, err := s.reports.LowStock(c.Request.Context(), threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lowStockReportResponse{
		Message:   "Low stock report generated",
		Threshold: r.Threshold,
		Count:     len(r.Items),
		Items:     toItemViews(r.Items),
	})
}

type paymentSummaryResponse struct {
	Message         string          `json:"message"`
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	PaymentCount    int             `json:"paymentCount"`
	CountByStatus   map[string]int  `json:"countByStatus"`
	TotalAuthorized decimal.Decimal `json:"totalAuthorized"`
	TotalCaptured   decimal.Decimal `json:"totalCaptured"`
	TotalRefunded   decimal.Decimal `json:"totalRefunded"`
}

func (s *Server) paymentSummary(c *gin.Context) {
	r, err := s.reports.PaymentSummary(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentSummaryResponse{
		Message:         "Payment summary generated",
		From:            r.From,
		To:              r.To,
		PaymentCount:    r.PaymentCount,
		CountByStatus:   r.CountByStatus,
		TotalAuthorized: r.TotalAuthorized,
		TotalCaptured:   r.TotalCaptured,
		TotalRefunded:   r.TotalRefunded,
	})
}

// Helpers

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{
			Message: "Validation failed",
			Error:   "invalid id",
		})
		return 0, false
	}
	return id, true
}

func writeInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Message: "Validation failed",
		Error:   err.Error(),
	})
}

func writeError(c *gin.Context, err error) {
	status, message := mapError(err)
	c.JSON(status, errorResponse{
		Message: message,
		Error:   err.Error(),
	})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, dominv.ErrValidation),
		errors.Is(err, domorder.ErrValidation),
		errors.Is(err, dompay.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, dominv.ErrNotFound):
		return http.StatusNotFound, "Inventory item not found"
	case errors.Is(err, domorder.ErrNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, dompay.ErrNotFound):
		return http.StatusNotFound, "Payment not found"
	case errors.Is(err, dominv.ErrAlreadyExists):
		return http.StatusConflict, "Item already exists"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, dompay.ErrInvalidState):
		return http.StatusConflict, "Invalid payment state"
	case errors.Is(err, domgw.ErrUnavailable):
		return http.StatusBadGateway, "External call failed"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
