package siigo

// Types mirror the SIIGO API wire format. The service only reads and
// aggregates these records, never mutates them upstream.

// Credentials configures one tenant-bound client.
type Credentials struct {
	Username  string
	AccessKey string
	PartnerID string
}

// AuthResponse is the body of POST /auth.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Pagination is the envelope every list endpoint carries.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
}

// DateFilter is forwarded as start_date/end_date query parameters.
// SIIGO's own date filtering is advisory; callers re-filter locally.
type DateFilter struct {
	Start string // YYYY-MM-DD, empty means unbounded
	End   string
}

// Customer is a SIIGO customer record.
type Customer struct {
	ID             string   `json:"id"`
	Identification string   `json:"identification"`
	Name           []string `json:"name"`
	Active         bool     `json:"active"`
}

// Tax is one tax line on an invoice item.
type Tax struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
}

// Retention is one retention line on an invoice.
type Retention struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
	Taxes       []Tax   `json:"taxes"`
}

// CounterpartRef identifies the customer or vendor on a document.
type CounterpartRef struct {
	ID             string `json:"id"`
	Identification string `json:"identification"`
	Name           string `json:"name"`
}

// Invoice is a SIIGO sales invoice.
type Invoice struct {
	ID         string         `json:"id"`
	Number     int            `json:"number"`
	Name       string         `json:"name"`
	Date       string         `json:"date"`
	Customer   CounterpartRef `json:"customer"`
	Total      float64        `json:"total"`
	Balance    float64        `json:"balance"`
	Items      []InvoiceItem  `json:"items"`
	Retentions []Retention    `json:"retentions,omitempty"`
}

// Purchase is a SIIGO purchase invoice.
type Purchase struct {
	ID      string         `json:"id"`
	Number  int            `json:"number"`
	Date    string         `json:"date"`
	DueDate string         `json:"due_date,omitempty"`
	Vendor  CounterpartRef `json:"vendor"`
	Total   float64        `json:"total"`
	Balance float64        `json:"balance"`
	Items   []InvoiceItem  `json:"items"`
}

// Account is one ledger account from the accounts endpoint.
type Account struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}
