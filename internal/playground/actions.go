package playground

import (
	"context"
	"fmt"

	"github.com/smartdevs17/passkey-playground/internal/connection"
	"github.com/smartdevs17/passkey-playground/internal/guard"
	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/session"
	"github.com/smartdevs17/passkey-playground/internal/wallet"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// DefaultMessage is signed when the caller supplies no text
const DefaultMessage = "Hello from the passkey playground!"

// Connect opens the wallet through the passkey flow
func (p *Playground) Connect(ctx context.Context) (*models.Account, error) {
	var account *models.Account
	err := p.run(ctx, guard.ActionConnect, func(ctx context.Context) error {
		p.session.BeginConnect()
		p.logs.Append(models.LogKindPending, "Connecting wallet...")

		acc, err := p.provider.Connect(ctx)
		if err == nil && (acc == nil || acc.SmartWallet == "") {
			err = utils.NewAppError(utils.ErrCodeWallet, "Wallet returned no account", "")
		}
		if err != nil {
			p.session.FailConnect()
			p.logs.Append(models.LogKindError, "Connection failed", errorDetails(err))
			return err
		}

		p.session.CompleteConnect(ctx, acc)
		p.logs.Append(models.LogKindSuccess, "Wallet connected!", acc.SmartWallet)
		account = acc
		return nil
	})
	return account, err
}

// Disconnect closes the wallet session
func (p *Playground) Disconnect(ctx context.Context) error {
	return p.run(ctx, guard.ActionDisconnect, func(ctx context.Context) error {
		if err := p.provider.Disconnect(ctx); err != nil {
			p.logs.Append(models.LogKindError, "Disconnect failed", errorDetails(err))
			return err
		}
		p.session.Disconnect()
		p.logs.Append(models.LogKindInfo, "Wallet disconnected")
		return nil
	})
}

// SignMessage asks the wallet to sign text and returns the signature
func (p *Playground) SignMessage(ctx context.Context, text string) (string, error) {
	if !p.session.IsConnected() {
		return "", ErrNotConnected
	}
	if text == "" {
		text = DefaultMessage
	}

	var signature string
	err := p.run(ctx, guard.ActionSign, func(ctx context.Context) error {
		p.logs.Append(models.LogKindPending, "Requesting signature...")

		sig, err := p.provider.SignMessage(ctx, text)
		if err != nil {
			p.logs.Append(models.LogKindError, "Signing failed", errorDetails(err))
			return err
		}

		p.logs.Append(models.LogKindSuccess, "Message signed!")
		p.logs.Append(models.LogKindInfo, "Sig: "+utils.ShortSignature(sig))
		signature = sig
		return nil
	})
	return signature, err
}

// SendTransfer moves lamports from the connected wallet to recipient
func (p *Playground) SendTransfer(ctx context.Context, recipient string, lamports uint64) (string, error) {
	from := p.session.Address()
	if from == "" {
		return "", ErrNotConnected
	}
	ix, err := wallet.TransferInstruction(from, recipient, lamports)
	if err != nil {
		return "", err
	}

	var signature string
	err = p.run(ctx, guard.ActionSend, func(ctx context.Context) error {
		p.logs.Append(models.LogKindPending, "Sending transaction...")

		sig, err := p.provider.SignAndSendTransaction(ctx, p.transaction(ix))
		if err != nil {
			p.history.Record("", models.TxKindTransfer, models.TxStatusFailed, errorDetails(err))
			p.logs.Append(models.LogKindError, "Transaction failed", errorDetails(err))
			return err
		}

		p.history.Record(sig, models.TxKindTransfer, models.TxStatusSuccess,
			fmt.Sprintf("Sent %s SOL to %s", session.FormatSOL(lamports), utils.ShortSignature(recipient)))
		p.logs.Append(models.LogKindSuccess, "Transaction sent!", sig)
		p.session.Observe(ctx, sig)
		signature = sig
		return nil
	})
	return signature, err
}

// Subscribe pays the configured plan's price to its merchant
func (p *Playground) Subscribe(ctx context.Context, planID string) (string, error) {
	plan, ok := p.cfg.Plan(planID)
	if !ok {
		return "", utils.NewAppError(utils.ErrCodeNotFound, "Unknown plan", planID)
	}
	from := p.session.Address()
	if from == "" {
		return "", ErrNotConnected
	}
	ix, err := wallet.TransferInstruction(from, plan.Merchant, plan.Lamports)
	if err != nil {
		return "", err
	}

	var signature string
	err = p.run(ctx, guard.ActionSubscribe, func(ctx context.Context) error {
		p.logs.Append(models.LogKindPending, fmt.Sprintf("Subscribing to %s...", plan.Name))

		sig, err := p.provider.SignAndSendTransaction(ctx, p.transaction(ix))
		if err != nil {
			p.history.Record("", models.TxKindSubscription, models.TxStatusFailed, errorDetails(err))
			p.logs.Append(models.LogKindError, "Subscription failed", errorDetails(err))
			return err
		}

		p.history.Record(sig, models.TxKindSubscription, models.TxStatusSuccess,
			fmt.Sprintf("%s plan, %s SOL", plan.Name, session.FormatSOL(plan.Lamports)))
		p.logs.Append(models.LogKindSuccess, fmt.Sprintf("Subscribed to %s!", plan.Name), sig)
		p.session.Observe(ctx, sig)
		signature = sig
		return nil
	})
	return signature, err
}

// RequestAirdrop funds the connected wallet from the cluster faucet and waits
// for confirmation. A zero amount uses the configured default.
func (p *Playground) RequestAirdrop(ctx context.Context, lamports uint64) (string, error) {
	address := p.session.Address()
	if address == "" {
		return "", ErrNotConnected
	}
	if lamports == 0 {
		lamports = p.airdropLamports
	}
	if lamports == 0 {
		return "", utils.NewAppError(utils.ErrCodeValidation, "Airdrop amount must be positive", "")
	}

	var signature string
	err := p.run(ctx, guard.ActionAirdrop, func(ctx context.Context) error {
		p.logs.Append(models.LogKindPending, "Requesting airdrop...")

		sig, err := p.rpc.RequestAirdrop(ctx, address, lamports)
		if err == nil {
			p.logs.Append(models.LogKindPending, "Confirming airdrop...")
			err = p.rpc.ConfirmTransaction(ctx, sig, connection.CommitmentConfirmed)
		}
		if err != nil {
			p.history.Record(sig, models.TxKindAirdrop, models.TxStatusFailed, errorDetails(err))
			p.logs.Append(models.LogKindError, "Airdrop failed", errorDetails(err))
			return err
		}

		p.history.Record(sig, models.TxKindAirdrop, models.TxStatusSuccess,
			fmt.Sprintf("Received %s SOL", session.FormatSOL(lamports)))
		p.logs.Append(models.LogKindSuccess, "Airdrop received!", fmt.Sprintf("+%s SOL", session.FormatSOL(lamports)))
		p.session.Observe(ctx, sig)
		signature = sig
		return nil
	})
	return signature, err
}

func (p *Playground) transaction(ix wallet.Instruction) wallet.TransactionRequest {
	return wallet.TransactionRequest{
		Instructions: []wallet.Instruction{ix},
		Options: wallet.TransactionOptions{
			FeeToken:          p.feeToken,
			ComputeUnitLimit:  p.computeUnits,
			ClusterSimulation: p.cluster,
		},
	}
}
