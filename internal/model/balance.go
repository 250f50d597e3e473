package model

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address         string `json:"address"`
	CoinType        string `json:"coinType"`
	Symbol          string `json:"symbol,omitempty"`
	Balance         string `json:"balance"`   // raw on-chain units (MIST for SUI)
	Formatted       string `json:"formatted"` // decimal string, no float rounding
	Decimals        int    `json:"decimals"`
	CoinObjectCount int    `json:"coinObjectCount"`
}

// Coin is one coin object in CoinsResponse
type Coin struct {
	ID        string `json:"id"`
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

// CoinsResponse represents response for GET /wallet/coins
type CoinsResponse struct {
	Address     string  `json:"address"`
	CoinType    string  `json:"coinType"`
	Coins       []Coin  `json:"coins"`
	NextCursor  *string `json:"nextCursor,omitempty"`
	HasNextPage bool    `json:"hasNextPage"`
}

// ReceiveResponse represents response for GET /wallet/receive
type ReceiveResponse struct {
	Address string `json:"address"`
	QR      string `json:"qr"` // base64 PNG
}

// ResolveResponse represents response for GET /wallet/resolve
type ResolveResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
