package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type balanceResult struct {
	Context rpcContext `json:"context"`
	Value   uint64     `json:"value"`
}

// SignatureStatus is the cluster's view of a submitted transaction
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

type signatureStatusesResult struct {
	Context rpcContext         `json:"context"`
	Value   []*SignatureStatus `json:"value"`
}

// GetBalance returns the lamport balance of address
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	if !utils.IsValidAddress(address) {
		return 0, utils.NewAppError(utils.ErrCodeValidation, "Invalid account address", address)
	}

	var result balanceResult
	err := c.call(ctx, &result, "getBalance", address, map[string]interface{}{
		"commitment": c.commitment,
	})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeBlockchain, "Failed to get balance", err.Error())
	}

	return result.Value, nil
}

// RequestAirdrop asks the cluster faucet for lamports and returns the transaction signature
func (c *Client) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	if !utils.IsValidAddress(address) {
		return "", utils.NewAppError(utils.ErrCodeValidation, "Invalid account address", address)
	}

	var signature string
	err := c.call(ctx, &signature, "requestAirdrop", address, lamports, map[string]interface{}{
		"commitment": c.commitment,
	})
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeBlockchain, "Airdrop request failed", err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"address":   address,
		"lamports":  lamports,
		"signature": signature,
	}).Info("Airdrop requested")
	return signature, nil
}

// GetSignatureStatus returns the status of signature, or nil if the cluster has not seen it
func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	var result signatureStatusesResult
	err := c.call(ctx, &result, "getSignatureStatuses", []string{signature}, map[string]interface{}{
		"searchTransactionHistory": true,
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeBlockchain, "Failed to get signature status", err.Error())
	}

	if len(result.Value) == 0 {
		return nil, nil
	}
	return result.Value[0], nil
}

// ConfirmTransaction waits until signature reaches the commitment level.
// It fails if the transaction errors on chain or ctx ends first.
func (c *Client) ConfirmTransaction(ctx context.Context, signature, commitment string) error {
	want, ok := commitmentRank[commitment]
	if !ok {
		return utils.NewAppError(utils.ErrCodeValidation, "Unknown commitment level", commitment)
	}

	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetSignatureStatus(ctx, signature)
		if err != nil {
			return err
		}

		if status != nil {
			if status.Err != nil {
				return utils.NewAppError(utils.ErrCodeBlockchain, "Transaction failed",
					fmt.Sprintf("%s: %v", signature, status.Err))
			}
			if commitmentRank[status.ConfirmationStatus] >= want {
				c.logger.WithFields(logrus.Fields{
					"signature":  signature,
					"commitment": status.ConfirmationStatus,
					"slot":       status.Slot,
				}).Debug("Transaction confirmed")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return utils.NewAppError(utils.ErrCodeBlockchain, "Transaction not confirmed",
				fmt.Sprintf("%s: %v", signature, ctx.Err()))
		case <-ticker.C:
		}
	}
}
