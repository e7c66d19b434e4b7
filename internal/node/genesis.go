package node

import "github.com/tinychain-go/tinychain/internal/chainmodel"

// Genesis is the hard-coded block every tinychain node starts from.
var Genesis = chainmodel.Block{
	Version:       0,
	PrevBlockHash: chainmodel.GenesisParentSentinel,
	MerkleHash:    "7118894203235a955a908c0abfc6d8fe6edec47b0a04ce1bf7263da3b4366d22",
	Timestamp:     1501821412,
	Bits:          24,
	Nonce:         10126761,
	Txns: []chainmodel.Transaction{
		{
			TxIns: []chainmodel.TxIn{
				{UnlockSig: []byte{}},
			},
			TxOuts: []chainmodel.TxOut{
				{Value: 5_000_000_000, ToAddress: "143UVyz7ooiAv1pMqbwPPpnH4BV9ifJGFF"},
			},
		},
	},
}
