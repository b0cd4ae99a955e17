// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ChargeDetails carries opaque payment instrument data to the gateway.
type ChargeDetails struct {
	Token       string `json:"token"`
	Description string `json:"description"`
}

// GatewayResult is the definite outcome of a gateway call.
type GatewayResult struct {
	Success     bool
	Reference   string
	RawResponse string
}

// Gateway is the external payment processor. Retries and timeouts inside
// the gateway are its own responsibility; the engine only consumes a
// definite success or failure.
type Gateway interface {
	Charge(ctx context.Context, amount int64, currency string, details ChargeDetails) (*GatewayResult, error)
	Refund(ctx context.Context, transactionRef string, amount int64) (*GatewayResult, error)
}

// SimulatedGateway approves every well-formed charge. Tokens prefixed with
// "fail" are declined, which gives tests and local development a
// deterministic failure path.
type SimulatedGateway struct{}

// NewSimulatedGateway creates the built-in simulated payment gateway
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

// Charge simulates a synchronous gateway charge
func (g *SimulatedGateway) Charge(ctx context.Context, amount int64, currency string, details ChargeDetails) (*GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("gateway unavailable: %w", err)
	}
	if strings.HasPrefix(details.Token, "fail") {
		return &GatewayResult{
			Success:     false,
			RawResponse: fmt.Sprintf(`{"status":"declined","amount":%d,"currency":%q}`, amount, currency),
		}, nil
	}
	ref := "sim_" + uuid.New().String()
	return &GatewayResult{
		Success:     true,
		Reference:   ref,
		RawResponse: fmt.Sprintf(`{"status":"approved","reference":%q,"amount":%d,"currency":%q}`, ref, amount, currency),
	}, nil
}

// Refund simulates a synchronous gateway refund
func (g *SimulatedGateway) Refund(ctx context.Context, transactionRef string, amount int64) (*GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("gateway unavailable: %w", err)
	}
	ref := "sim_rf_" + uuid.New().String()
	return &GatewayResult{
		Success:     true,
		Reference:   ref,
		RawResponse: fmt.Sprintf(`{"status":"refunded","reference":%q,"original":%q,"amount":%d}`, ref, transactionRef, amount),
	}, nil
}
