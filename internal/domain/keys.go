package domain

// KeyPrefix is the namespace prefix for all keys this service reads.
// Ingestion jobs write under the same prefix.
const KeyPrefix = "roomrank:"

// Collection names, fixed by the ingestion contract.
const (
	CollectionApartments = "apartments"
	CollectionStudents   = "students"
)
