package model

// Collection names a document collection in the backing store.
type Collection string

const (
	CollectionAccounts        Collection = "accounts"
	CollectionExpenses        Collection = "expenses"
	CollectionIncomes         Collection = "incomes"
	CollectionTransfers       Collection = "transfers"
	CollectionCredits         Collection = "credits"
	CollectionDollarMovements Collection = "dollar_movements"
	CollectionDollarBalance   Collection = "dollar_balance"
	CollectionCategories      Collection = "categories"
)

// Document is a record persisted in a store collection. The version is
// owned by the store and is never part of the encoded body.
type Document interface {
	Collection() Collection
	DocID() string
	DocVersion() int64
	SetVersion(v int64)
	Validate() error
}
