// Package vaultrpc exposes a vault over gRPC: clients submit signed command
// envelopes and read status and event snapshots as JSON.
package vaultrpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Philogy/Social-Recovery-Asset-Vault/api"
	"github.com/Philogy/Social-Recovery-Asset-Vault/command"
)

// Client is a typed client for the Vault gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client VaultClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewVaultClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Execute submits canonical command bytes and returns the server's receipt.
// The bytes are parsed locally first, and the receipt's command CID must
// match the locally computed one.
func (c *Client) Execute(cmdBytes []byte) (api.Receipt, error) {
	var receipt api.Receipt
	if c == nil || c.client == nil {
		return receipt, errors.New("vaultrpc: client not connected")
	}
	cmd, err := command.Parse(cmdBytes)
	if err != nil {
		return receipt, err
	}

	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Execute(ctx, wrapperspb.Bytes(cmd.Raw))
	if err != nil {
		return receipt, mapRPC(err)
	}
	if err := json.Unmarshal(reply.GetValue(), &receipt); err != nil {
		return receipt, err
	}
	if receipt.CommandCID != cmd.CID() {
		return receipt, errors.New("vaultrpc: receipt for a different command")
	}
	return receipt, nil
}

// Status reads the vault's state snapshot. expectVault, when non-empty, makes
// the server reject the read if it serves a different vault.
func (c *Client) Status(expectVault string) (api.Status, error) {
	var st api.Status
	if c == nil || c.client == nil {
		return st, errors.New("vaultrpc: client not connected")
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Status(ctx, wrapperspb.String(expectVault))
	if err != nil {
		return st, mapRPC(err)
	}
	if err := json.Unmarshal(reply.GetValue(), &st); err != nil {
		return st, err
	}
	return st, nil
}

// Events reads all events with sequence numbers greater than after.
func (c *Client) Events(after uint64) ([]api.Event, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("vaultrpc: client not connected")
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Events(ctx, wrapperspb.UInt64(after))
	if err != nil {
		return nil, mapRPC(err)
	}
	var page api.EventPage
	if err := json.Unmarshal(reply.GetValue(), &page); err != nil {
		return nil, err
	}
	return page.Events, nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
