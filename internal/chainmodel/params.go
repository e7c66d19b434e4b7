// Package chainmodel defines tinychain's core entities — OutPoint, TxOut,
// TxIn, UnspentTxOut, Transaction, Block, MerkleNode — and the fixed
// consensus parameters they're validated against.
package chainmodel

// Consensus parameters, fixed at compile time (spec.md §3).
const (
	MaxBlockSerializedSize = 1_000_000
	CoinbaseMaturity       = 2
	MaxFutureBlockTime     = 7200 // seconds

	BelushisPerCoin = 100_000_000
	TotalCoins      = 21_000_000
	MaxMoney        = TotalCoins * BelushisPerCoin

	TimeBetweenBlocksTarget  = 60    // seconds
	DifficultyPeriodTarget   = 36000 // seconds
	PeriodInBlocks           = 600
	InitialDifficultyBits    = 24
	HalveSubsidyAfterBlocks  = 210_000
)

// GenesisParentSentinel is the literal string marking a block as having no
// parent (the genesis block).
const GenesisParentSentinel = "None"
