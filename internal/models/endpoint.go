package models

// Endpoint IDs for the built-in Selling Partner API catalog
const (
	EndpointOrders       = "orders"
	EndpointInventory    = "inventory"
	EndpointFinances     = "finances"
	EndpointCatalogItems = "catalog-items"
	EndpointListings     = "listings"
	EndpointReports      = "reports"
	EndpointShipments    = "shipments"
	EndpointSellers      = "sellers"
)

// Endpoint describes one Selling Partner API resource the extractor pulls.
// The catalog is compiled in; endpoints are not user-configurable.
type Endpoint struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// endpointCatalog is ordered; bulk extraction and snapshot ID lists follow
// this order.
var endpointCatalog = []Endpoint{
	{ID: EndpointOrders, Name: "Orders", Path: "/orders/v0/orders", Description: "Order headers for the configured marketplace"},
	{ID: EndpointInventory, Name: "FBA Inventory", Path: "/fba/inventory/v1/summaries", Description: "Fulfillment network inventory summaries"},
	{ID: EndpointFinances, Name: "Finances", Path: "/finances/v0/financialEvents", Description: "Settlement and fee financial events"},
	{ID: EndpointCatalogItems, Name: "Catalog Items", Path: "/catalog/2022-04-01/items", Description: "Catalog item attributes by ASIN"},
	{ID: EndpointListings, Name: "Listings", Path: "/listings/2021-08-01/items", Description: "Active listings with offer details"},
	{ID: EndpointReports, Name: "Reports", Path: "/reports/2021-06-30/reports", Description: "Recent report generation requests"},
	{ID: EndpointShipments, Name: "Shipments", Path: "/fba/inbound/v0/shipments", Description: "Inbound shipment status"},
	{ID: EndpointSellers, Name: "Marketplace Participations", Path: "/sellers/v1/marketplaceParticipations", Description: "Marketplaces this seller participates in"},
}

// EndpointCatalog returns the ordered endpoint catalog. The returned slice is
// a copy; callers may not mutate the catalog.
func EndpointCatalog() []Endpoint {
	out := make([]Endpoint, len(endpointCatalog))
	copy(out, endpointCatalog)
	return out
}

// EndpointByID looks up a catalog entry.
func EndpointByID(id string) (Endpoint, bool) {
	for _, ep := range endpointCatalog {
		if ep.ID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// EndpointCount returns the catalog size.
func EndpointCount() int {
	return len(endpointCatalog)
}
