package storage

// Import is a row of the imports table.
type Import struct {
	ID        string
	Source    string
	RowCount  int64
	CreatedAt string
}

// Entry is a row of the entries table. Amount keeps the decimal text.
type Entry struct {
	ID         int64
	ImportID   string
	Source     string
	OccurredAt string
	Purpose    string
	Category   string
	Amount     string
	Kind       string
}
