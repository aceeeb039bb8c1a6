package common

// Table is a tabular result able to render itself as CSV records
type Table interface {
	Header() []string
	Records() [][]string
}
