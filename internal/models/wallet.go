package models

// Account is the connected smart wallet as reported by the wallet SDK
type Account struct {
	SmartWallet   string `json:"smartWallet"`
	CredentialID  string `json:"credentialId,omitempty"`
	PasskeyPubkey string `json:"passkeyPubkey,omitempty"`
}

// WalletState mirrors the reactive fields exposed by the wallet SDK
type WalletState struct {
	Account      *Account `json:"account,omitempty"`
	IsConnecting bool     `json:"isConnecting"`
	IsSigning    bool     `json:"isSigning"`
	Error        string   `json:"error,omitempty"`
}

// Address returns the primary account address, or "" when not connected
func (s WalletState) Address() string {
	if s.Account == nil {
		return ""
	}
	return s.Account.SmartWallet
}
