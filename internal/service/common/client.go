//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	api "github.com/pablo-flores/wa-3fecta/internal/api/grpc/masking"
	"github.com/pablo-flores/wa-3fecta/internal/config"
	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Client wraps the gRPC MaskingService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the masking server.
	conn *grpc.ClientConn
	// api is the MaskingService client interface.
	api api.MaskingServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the masking server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial masking server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewMaskingServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// FindMaskedAlarms asks the server for the masked alarms. A nil toggle keeps
// the server's configured disk policy.
func (c *Client) FindMaskedAlarms(ctx context.Context, allowDiskUse *bool) ([]alarm.Record, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.FindMaskedAlarms(callCtx, api.NewRequest(allowDiskUse))
	if err != nil {
		return nil, fmt.Errorf("find masked alarms: %w", err)
	}

	records, err := api.FromListValue(response)
	if err != nil {
		return nil, fmt.Errorf("decode masked alarms: %w", err)
	}

	return records, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
