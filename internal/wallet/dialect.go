package wallet

import (
	"encoding/base64"

	"github.com/btcsuite/btcutil/base58"
)

// dialect captures how one SDK generation names its endpoints and fields
type dialect struct {
	version        string
	connectPath    string
	disconnectPath string
	signPath       string
	sendPath       string
	signatureField string
	txField        string
	encodeData     func([]byte) string
}

var dialects = map[string]dialect{
	"v1": {
		version:        "v1",
		connectPath:    "/connect",
		disconnectPath: "/disconnect",
		signPath:       "/sign-message",
		sendPath:       "/sign-and-send",
		signatureField: "signature",
		txField:        "txid",
		encodeData:     base58.Encode,
	},
	"v2": {
		version:        "v2",
		connectPath:    "/v2/wallet/connect",
		disconnectPath: "/v2/wallet/disconnect",
		signPath:       "/v2/wallet/sign-message",
		sendPath:       "/v2/wallet/sign-and-send-transaction",
		signatureField: "signedMessage",
		txField:        "signature",
		encodeData:     base64.StdEncoding.EncodeToString,
	},
}

// wireInstruction is an Instruction as serialized for the bridge
type wireInstruction struct {
	ProgramID string        `json:"programId"`
	Keys      []AccountMeta `json:"keys"`
	Data      string        `json:"data"`
}

func (d dialect) encodeInstructions(ixs []Instruction) []wireInstruction {
	out := make([]wireInstruction, len(ixs))
	for i, ix := range ixs {
		out[i] = wireInstruction{
			ProgramID: ix.ProgramID,
			Keys:      ix.Accounts,
			Data:      d.encodeData(ix.Data),
		}
	}
	return out
}
