package concurrency

import "diskdb/transaction"

// Transaction aliases transaction.Transaction so callers that sit above the storage layer can depend on
// this package alone without reaching into diskdb/transaction directly.
type Transaction = transaction.Transaction
