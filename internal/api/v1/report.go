package v1

import "time"

// NameCount is one row of a frequency histogram.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// InventorySummary is derived from a catalog scan.
type InventorySummary struct {
	TotalTitles    int64       `json:"totalTitles"`
	TotalInventory int64       `json:"totalInventory"`
	TopCategories  []NameCount `json:"topCategories"`
	TopAuthors     []NameCount `json:"topAuthors"`
}

// BookSales is the summed quantity sold for one book.
type BookSales struct {
	BookID   string `json:"bookId"`
	Quantity int64  `json:"quantity"`
}

// TopSellers is derived from a time-windowed activity log scan.
type TopSellers struct {
	Window    string      `json:"window"`
	From      time.Time   `json:"from"`
	To        time.Time   `json:"to"`
	TotalSold int64       `json:"totalSold"`
	Top       []BookSales `json:"top"`
}

// SalesBucket is the sold quantity inside one [Start, Start+bucket) slot.
// LargestSale and SmallestSale are single-entry quantities; zero when empty.
type SalesBucket struct {
	Start        time.Time `json:"start"`
	Quantity     int64     `json:"quantity"`
	Entries      int64     `json:"entries"`
	LargestSale  int64     `json:"largestSale"`
	SmallestSale int64     `json:"smallestSale"`
}

// CachedReport wraps a derived report with provenance. Cache entries are
// disposable and never authoritative.
type CachedReport[T any] struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	SourceWindow string    `json:"sourceWindow"`
	Report       T         `json:"report"`
}
