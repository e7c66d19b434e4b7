// Package validate implements transaction and block validation: the
// orphan-carrying error taxonomy, spend signature verification, and the
// ordered rule checks of validate_txn and validate_block.
package validate

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// TxnValidationError reports why a transaction failed validation. When
// Orphan is non-nil, the transaction referenced an unresolvable UTXO and
// should be enqueued into orphan_txns rather than discarded.
type TxnValidationError struct {
	Reason string
	Orphan *chainmodel.Transaction
}

func (e *TxnValidationError) Error() string {
	if e.Orphan != nil {
		return fmt.Sprintf("txn validation: %s (orphan)", e.Reason)
	}
	return fmt.Sprintf("txn validation: %s", e.Reason)
}

// IsOrphan reports whether err is a TxnValidationError carrying an orphan
// transaction.
func IsOrphan(err error) (chainmodel.Transaction, bool) {
	te, ok := err.(*TxnValidationError)
	if !ok || te.Orphan == nil {
		return chainmodel.Transaction{}, false
	}
	return *te.Orphan, true
}

func newTxnErr(reason string) error {
	return &TxnValidationError{Reason: reason}
}

func newOrphanTxnErr(reason string, tx chainmodel.Transaction) error {
	return &TxnValidationError{Reason: reason, Orphan: &tx}
}

// BlockValidationError reports why a block failed validation. When Orphan
// is non-nil, the block's parent was not found in any known chain and
// should be enqueued into orphan_blocks.
type BlockValidationError struct {
	Reason string
	Orphan *chainmodel.Block
}

func (e *BlockValidationError) Error() string {
	if e.Orphan != nil {
		return fmt.Sprintf("block validation: %s (orphan)", e.Reason)
	}
	return fmt.Sprintf("block validation: %s", e.Reason)
}

// IsOrphanBlock reports whether err is a BlockValidationError carrying an
// orphan block.
func IsOrphanBlock(err error) (chainmodel.Block, bool) {
	be, ok := err.(*BlockValidationError)
	if !ok || be.Orphan == nil {
		return chainmodel.Block{}, false
	}
	return *be.Orphan, true
}

func newBlockErr(reason string) error {
	return &BlockValidationError{Reason: reason}
}

func newOrphanBlockErr(reason string, b chainmodel.Block) error {
	return &BlockValidationError{Reason: reason, Orphan: &b}
}

// SpendUnlockError is raised internally by signature verification; callers
// in this package convert it to a TxnValidationError at the boundary.
type SpendUnlockError struct {
	Reason string
}

func (e *SpendUnlockError) Error() string {
	return fmt.Sprintf("spend unlock: %s", e.Reason)
}
