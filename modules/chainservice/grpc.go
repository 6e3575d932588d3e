package chainservice

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/types"
)

// CompactTxStreamer method names.
const (
	methodGetLightdInfo  = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetLightdInfo"
	methodGetLatestBlock = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetLatestBlock"
	methodGetBlockRange  = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetBlockRange"
	methodGetTaddrTxids  = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetTaddressTxids"
	methodGetTransaction = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetTransaction"
	methodSendTx         = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/SendTransaction"
)

// rawMessage carries pre-encoded protobuf bytes through grpc. The messages
// themselves are marshalled by this package, so the codec is a passthrough.
type rawMessage struct {
	data []byte
}

type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(*rawMessage)
	if !ok {
		return nil, errors.New("raw codec can only marshal rawMessage values")
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(*rawMessage)
	if !ok {
		return errors.New("raw codec can only unmarshal into rawMessage values")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return "zecwallet-raw" }

// Client is a modules.ChainService over a lightwalletd gRPC endpoint.
type Client struct {
	conn *grpc.ClientConn
}

// assert the interface at compile time.
var _ modules.ChainService = (*Client)(nil)

// New dials a lightwalletd server. With tls true the platform roots are
// used; otherwise the connection is plaintext (regtest and local servers).
func New(server string, tls bool) (*Client, error) {
	creds := insecure.NewCredentials()
	if tls {
		creds = credentials.NewClientTLSFromCert(nil, "")
	}
	conn, err := grpc.Dial(server,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req []byte) ([]byte, error) {
	out := &rawMessage{}
	if err := c.conn.Invoke(ctx, method, &rawMessage{data: req}, out); err != nil {
		return nil, err
	}
	return out.data, nil
}

// GetInfo fetches server and chain metadata.
func (c *Client) GetInfo(ctx context.Context) (*modules.LightdInfo, error) {
	raw, err := c.invoke(ctx, methodGetLightdInfo, nil)
	if err != nil {
		return nil, err
	}
	return unmarshalLightdInfo(raw)
}

// GetLatestBlock fetches the chain tip.
func (c *Client) GetLatestBlock(ctx context.Context) (*modules.BlockID, error) {
	raw, err := c.invoke(ctx, methodGetLatestBlock, nil)
	if err != nil {
		return nil, err
	}
	return unmarshalBlockID(raw)
}

func (c *Client) stream(ctx context.Context, name, method string, req []byte, each func([]byte) error) error {
	desc := &grpc.StreamDesc{StreamName: name, ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, method)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&rawMessage{data: req}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := &rawMessage{}
		err := stream.RecvMsg(msg)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := each(msg.data); err != nil {
			return err
		}
	}
}

// GetBlockRange streams compact blocks for [start, end].
func (c *Client) GetBlockRange(ctx context.Context, start, end uint64, fn func(*types.CompactBlock) error) error {
	req := marshalBlockRange(start, end)
	return c.stream(ctx, "GetBlockRange", methodGetBlockRange, req, func(raw []byte) error {
		cb := new(types.CompactBlock)
		if err := cb.Unmarshal(raw); err != nil {
			return err
		}
		return fn(cb)
	})
}

// GetTransparentTxIDs streams the raw transactions touching address in
// [start, end].
func (c *Client) GetTransparentTxIDs(ctx context.Context, address string, start, end uint64, fn func(*modules.RawTransaction) error) error {
	req := marshalTransparentAddressBlockFilter(address, start, end)
	return c.stream(ctx, "GetTaddressTxids", methodGetTaddrTxids, req, func(raw []byte) error {
		rtx, err := unmarshalRawTransaction(raw)
		if err != nil {
			return err
		}
		return fn(rtx)
	})
}

// GetFullTx fetches one transaction by txid.
func (c *Client) GetFullTx(ctx context.Context, txid types.TxID) (*modules.RawTransaction, error) {
	raw, err := c.invoke(ctx, methodGetTransaction, marshalTxFilter(txid[:]))
	if err != nil {
		return nil, err
	}
	return unmarshalRawTransaction(raw)
}

// SendTransaction broadcasts a raw transaction.
func (c *Client) SendTransaction(ctx context.Context, rawTx []byte) (*modules.SendResponse, error) {
	raw, err := c.invoke(ctx, methodSendTx, marshalRawTransaction(rawTx))
	if err != nil {
		return nil, err
	}
	return unmarshalSendResponse(raw)
}
