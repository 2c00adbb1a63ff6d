package models

// WatchlistEntry is one tracked symbol. The backend keeps set semantics
// keyed by Symbol and rejects duplicate adds with an error; the client
// never merges silently.
type WatchlistEntry struct {
	Symbol   string `json:"symbol"`
	Category string `json:"category"`
	Type     string `json:"type"`   // stock | crypto | commodity
	Market   string `json:"market"` // US | TR | GLOBAL | CRYPTO
}
