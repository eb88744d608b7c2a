package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	gethTypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
)

var ErrNoHeaders = errors.New("no execution headers")

// ParseExecutionHeaders reads one header or an array of headers in the
// execution client's JSON form. The order of the input is kept.
func ParseExecutionHeaders(data []byte) ([]*ethereum.ExecutionHeader, error) {
	var gethHeaders []*gethTypes.Header
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &gethHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	} else {
		var header gethTypes.Header
		if err := json.Unmarshal(trimmed, &header); err != nil {
			return nil, fmt.Errorf("unmarshal header: %w", err)
		}
		gethHeaders = append(gethHeaders, &header)
	}
	if len(gethHeaders) == 0 {
		return nil, ErrNoHeaders
	}

	headers := make([]*ethereum.ExecutionHeader, len(gethHeaders))
	for i, h := range gethHeaders {
		header, err := ethereum.MakeHeader(h)
		if err != nil {
			return nil, fmt.Errorf("header %d: %w", i, err)
		}
		headers[i] = header
	}
	return headers, nil
}

// ParseReceipts reads the receipts of one block, as returned by
// eth_getBlockReceipts, in transaction order.
func ParseReceipts(data []byte) ([]*ethereum.TransactionReceipt, error) {
	var receipts gethTypes.Receipts
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("unmarshal receipts: %w", err)
	}
	return ethereum.MakeReceipts(receipts)
}
