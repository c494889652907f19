package transport

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image"`
	Supplier    string  `json:"supplier"`
	Farm        string  `json:"farm"`
}

type UpdateStockRequest struct {
	Quantity int `json:"quantity"`
}

type OrderItemInput struct {
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

type CreateOrderRequest struct {
	Items         []OrderItemInput `json:"items"`
	Total         float64          `json:"total"`
	CustomerName  string           `json:"customerName"`
	CustomerEmail string           `json:"customerEmail"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type CheckoutResponse struct {
	OrderID    uint   `json:"orderId"`
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"paymentUrl"`
}

type VerifyPaymentRequest struct {
	Pidx    string `json:"pidx"`
	OrderID uint   `json:"orderId,omitempty"`
}

type VerifyPaymentResponse struct {
	OrderID uint   `json:"orderId"`
	Paid    bool   `json:"paid"`
	Status  string `json:"status"`
}
