package wallet

import (
	"encoding/binary"

	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// SystemProgramID is the address of the native system program
const SystemProgramID = "11111111111111111111111111111111"

// systemTransfer is the system program's transfer instruction index
const systemTransfer uint32 = 2

// TransferInstruction builds a system program transfer of lamports from -> to.
// The sender signs; both accounts are writable.
func TransferInstruction(from, to string, lamports uint64) (Instruction, error) {
	if _, err := utils.DecodeAddress(from); err != nil {
		return Instruction{}, err
	}
	if _, err := utils.DecodeAddress(to); err != nil {
		return Instruction{}, err
	}
	if lamports == 0 {
		return Instruction{}, utils.NewAppError(utils.ErrCodeValidation, "Transfer amount must be positive", "")
	}

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransfer)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}, nil
}
