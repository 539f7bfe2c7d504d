package models

// RawMessage holds the attribute values of a single <sms> element exactly as
// they appear in the backup document. Every attribute is optional; a nil
// field means the attribute was absent from the element. No semantic
// validation happens at this level.
type RawMessage struct {
	Protocol      *string `json:"protocol"`
	Address       *string `json:"address"`
	Date          *string `json:"date"` // epoch milliseconds as text, converted later
	Type          *string `json:"type"` // "1" received, "2" sent, anything else unknown
	Subject       *string `json:"subject"`
	Body          *string `json:"body"`
	TOA           *string `json:"toa"`
	SCTOA         *string `json:"sc_toa"`
	ServiceCenter *string `json:"service_center"`
	Read          *string `json:"read"`
	Status        *string `json:"status"`
	Locked        *string `json:"locked"`
	DateSent      *string `json:"date_sent"`
	SubID         *string `json:"sub_id"`
	ReadableDate  *string `json:"readable_date"`
	ContactName   *string `json:"contact_name"`
}

// Transaction is a persisted SMS record owned by one user, enriched with the
// extracted monetary amount. Rows are created in bulk on upload and never
// updated afterwards.
type Transaction struct {
	ID     int64 `json:"id,omitempty"`
	UserID int64 `json:"user_id"`

	Protocol      *string  `json:"protocol"`
	Address       *string  `json:"address"`
	Date          *int64   `json:"date"` // epoch milliseconds, nil when absent or non-numeric
	Type          *string  `json:"type"`
	Subject       *string  `json:"subject"`
	Body          *string  `json:"body"`
	TOA           *string  `json:"toa"`
	SCTOA         *string  `json:"sc_toa"`
	ServiceCenter *string  `json:"service_center"`
	Read          *string  `json:"read"`
	Status        *string  `json:"status"`
	Locked        *string  `json:"locked"`
	DateSent      *int64   `json:"date_sent"`
	SubID         *string  `json:"sub_id"`
	ReadableDate  *string  `json:"readable_date"`
	ContactName   *string  `json:"contact_name"`
	Amount        *float64 `json:"amount"` // nil when no extraction rule matched
}

// TransactionFilter carries the optional dashboard filters. Date strings are
// expected in YYYY-MM-DD form and validated by the service layer before any
// query runs.
type TransactionFilter struct {
	Type      string
	StartDate string
	EndDate   string
	MinAmount *float64
	MaxAmount *float64
	Limit     int
}

// TransactionQuery is the resolved form of TransactionFilter handed to the
// store: date strings already validated and converted to inclusive
// epoch-millisecond bounds.
type TransactionQuery struct {
	Type        string
	StartMillis *int64
	EndMillis   *int64
	MinAmount   *float64
	MaxAmount   *float64
	Limit       int
}

// AggregateView is a positionally aligned labels/data pair consumed by the
// chart front-end. Labels[i] corresponds to Data[i]. It is computed on demand
// and never persisted.
type AggregateView struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// TypeSummary counts a user's transactions by message type code.
type TypeSummary struct {
	Total    int64 `json:"total_sms"`
	Received int64 `json:"received_sms"`
	Sent     int64 `json:"sent_sms"`
	Unknown  int64 `json:"unknown_type_sms"`
}

// AmountRow is the minimal projection the aggregation queries need: one row
// per transaction with a non-null amount, in insertion order.
type AmountRow struct {
	Type   *string
	Date   *int64
	Amount float64
}
