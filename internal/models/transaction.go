package models

// TxKind identifies the operation behind a transaction record
type TxKind string

const (
	TxKindTransfer     TxKind = "transfer"
	TxKindSubscription TxKind = "subscription"
	TxKindAirdrop      TxKind = "airdrop"
)

// TxStatus is the outcome of a completed operation
type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
)

// TransactionRecord is an entry in the transaction history.
// Signature is empty for attempts that never reached the network.
type TransactionRecord struct {
	Signature string   `json:"signature"`
	Kind      TxKind   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Status    TxStatus `json:"status"`
	Details   string   `json:"details,omitempty"`
}
