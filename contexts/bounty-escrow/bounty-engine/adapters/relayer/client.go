package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	KindNativeTransfer = "native_transfer"
	KindFunctionCall   = "function_call"

	MethodFTTransfer = "ft_transfer"
)

// FTTransferArgs are the arguments of the token contract's ft_transfer.
type FTTransferArgs struct {
	ReceiverID string  `json:"receiver_id"`
	Amount     string  `json:"amount"`
	Memo       *string `json:"memo"`
}

// ActionRequest is what the relayer signs and submits on our behalf. Handle
// doubles as the idempotency key.
type ActionRequest struct {
	Handle     string          `json:"handle"`
	Kind       string          `json:"kind"`
	ReceiverID string          `json:"receiver_id"`
	Amount     string          `json:"amount,omitempty"`
	Method     string          `json:"method,omitempty"`
	Args       *FTTransferArgs `json:"args,omitempty"`
	Deposit    string          `json:"deposit,omitempty"`
	GasTgas    uint64          `json:"gas_tgas,omitempty"`
}

// Client executes scheduled transfers through an HTTP relayer service.
type Client struct {
	url       string
	authToken string
	client    *http.Client

	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func NewClient(url string, authToken string) *Client {
	return &Client{
		url:       strings.TrimRight(strings.TrimSpace(url), "/"),
		authToken: strings.TrimSpace(authToken),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		InitialInterval: time.Second,
		MaxInterval:     4 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// BuildRequest maps a transfer onto a relayer action. Token transfers become
// an ft_transfer call on the token contract with the one-yocto deposit.
func BuildRequest(transfer entities.Transfer) ActionRequest {
	if transfer.Asset.IsNative() {
		return ActionRequest{
			Handle:     transfer.Handle,
			Kind:       KindNativeTransfer,
			ReceiverID: transfer.Receiver,
			Amount:     transfer.Amount.String(),
		}
	}
	return ActionRequest{
		Handle:     transfer.Handle,
		Kind:       KindFunctionCall,
		ReceiverID: transfer.Asset.TokenID,
		Method:     MethodFTTransfer,
		Args: &FTTransferArgs{
			ReceiverID: transfer.Receiver,
			Amount:     transfer.Amount.String(),
			Memo:       transfer.Memo,
		},
		Deposit: strconv.FormatUint(transfer.Deposit, 10),
		GasTgas: transfer.GasTgas,
	}
}

func (c *Client) Execute(ctx context.Context, transfer entities.Transfer) error {
	jsonData, err := json.Marshal(BuildRequest(transfer))
	if err != nil {
		return fmt.Errorf("failed to marshal relayer request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/actions", bytes.NewReader(jsonData))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", transfer.Handle)
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send relayer request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode >= 500:
			return fmt.Errorf("relayer unavailable, status code: %d", resp.StatusCode)
		case resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden ||
			resp.StatusCode == http.StatusConflict:
			// not a verdict on the transfer; the leg stays pending
			return backoff.Permanent(fmt.Errorf("relayer refused request, status code: %d", resp.StatusCode))
		default:
			return backoff.Permanent(fmt.Errorf("%w: relayer status code: %d", ports.ErrTransferRejected, resp.StatusCode))
		}
	}

	backoffConfig := backoff.NewExponentialBackOff()
	backoffConfig.InitialInterval = c.InitialInterval
	backoffConfig.Multiplier = 1.5
	backoffConfig.MaxInterval = c.MaxInterval
	backoffConfig.MaxElapsedTime = c.MaxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(backoffConfig, ctx)); err != nil {
		return fmt.Errorf("transfer %s failed after retries: %w", transfer.Handle, err)
	}
	return nil
}
