package models

// AdminStats feeds the admin analytics dashboard. Nothing here is persisted.
type AdminStats struct {
	Totals          StatsTotals    `json:"totals"`
	StatusBreakdown []StatusCount  `json:"statusBreakdown"`
	SalesByDay      []DailySales   `json:"salesByDay"`
	SalesByMonth    []MonthlySales `json:"salesByMonth"`
	TopProducts     []TopProduct   `json:"topProducts"`
	TopCustomers    []TopCustomer  `json:"topCustomers"`
}

type StatsTotals struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalOrders   int64   `json:"totalOrders"`
	TotalUsers    int64   `json:"totalUsers"`
	TotalProducts int64   `json:"totalProducts"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

type StatusCount struct {
	Status string `json:"status" bson:"status"`
	Count  int64  `json:"count" bson:"count"`
}

type DailySales struct {
	Date    string  `json:"date" bson:"date"`
	Revenue float64 `json:"revenue" bson:"revenue"`
	Orders  int64   `json:"orders" bson:"orders"`
}

type MonthlySales struct {
	YM      string  `json:"ym" bson:"ym"`
	Revenue float64 `json:"revenue" bson:"revenue"`
	Orders  int64   `json:"orders" bson:"orders"`
}

type TopProduct struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Qty       int64   `json:"qty" bson:"qty"`
	Revenue   float64 `json:"revenue" bson:"revenue"`
}

type TopCustomer struct {
	Email   string  `json:"_id" bson:"_id"`
	Orders  int64   `json:"orders" bson:"orders"`
	Revenue float64 `json:"revenue" bson:"revenue"`
}
