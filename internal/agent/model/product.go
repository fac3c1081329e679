package model

// Product is a catalog item returned by research. Title and Image are the only
// fields styling relies on.
type Product struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Image       string   `json:"image" yaml:"image"`
	Category    string   `json:"category" yaml:"category"`
	Occasions   []string `json:"occasions,omitempty" yaml:"occasions"`
	Price       float64  `json:"price" yaml:"price"`
	Currency    string   `json:"currency,omitempty" yaml:"currency"`
	Link        string   `json:"link,omitempty" yaml:"link"`
	Description string   `json:"description,omitempty" yaml:"description"`
	InStock     bool     `json:"in_stock" yaml:"in_stock"`
}
