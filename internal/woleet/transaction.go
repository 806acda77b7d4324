package woleet

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Provider names a transaction lookup service.
type Provider string

const (
	ProviderWoleet      Provider = "woleet.io"
	ProviderChainSo     Provider = "chain.so"
	ProviderBlockcypher Provider = "blockcypher.com"
)

// Transaction is the provider-independent view of a bitcoin transaction.
type Transaction struct {
	TxID          string     `json:"txId" yaml:"txId"`
	Confirmations int        `json:"confirmations" yaml:"confirmations"`
	ConfirmedOn   *time.Time `json:"confirmedOn,omitempty" yaml:"confirmedOn,omitempty"`
	BlockHash     string     `json:"blockHash,omitempty" yaml:"blockHash,omitempty"`
	OpReturn      string     `json:"opReturn,omitempty" yaml:"opReturn,omitempty"`
}

// SetDefaultProvider selects the provider used by GetTransaction. Unknown
// names select chain.so.
func (c *Client) SetDefaultProvider(name string) {
	switch p := Provider(name); p {
	case ProviderWoleet, ProviderBlockcypher:
		c.provider = p
	default:
		c.provider = ProviderChainSo
	}
}

func (c *Client) Provider() Provider { return c.provider }

// GetTransaction looks txID up with the current provider.
func (c *Client) GetTransaction(ctx context.Context, txID string) (*Transaction, error) {
	id := url.PathEscape(txID)
	switch c.provider {
	case ProviderChainSo:
		return c.chainSoTransaction(ctx, id)
	case ProviderBlockcypher:
		return c.blockcypherTransaction(ctx, id)
	default:
		return c.woleetTransaction(ctx, id)
	}
}

func (c *Client) woleetTransaction(ctx context.Context, id string) (*Transaction, error) {
	var res struct {
		TxID          string `json:"txid"`
		Confirmations int    `json:"confirmations"`
		Time          int64  `json:"time"`
		BlockHash     string `json:"blockhash"`
		Vout          []struct {
			ScriptPubKey *struct {
				Asm *string `json:"asm"`
			} `json:"scriptPubKey"`
		} `json:"vout"`
	}
	found, err := c.getJSON(ctx, "GET", c.BaseURL+"/bitcoin/transaction/"+id, nil, &res)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTxNotFound
	}

	var opReturn string
	for _, out := range res.Vout {
		if out.ScriptPubKey != nil && out.ScriptPubKey.Asm != nil {
			if op := opReturnData(*out.ScriptPubKey.Asm); op != "" {
				opReturn = op
				break
			}
		}
	}
	return makeTransaction(res.TxID, res.Confirmations, unixTime(res.Time), res.BlockHash, opReturn), nil
}

func (c *Client) chainSoTransaction(ctx context.Context, id string) (*Transaction, error) {
	var res struct {
		Status string `json:"status"`
		Data   struct {
			TxID          string `json:"txid"`
			Confirmations int    `json:"confirmations"`
			Time          int64  `json:"time"`
			BlockHash     string `json:"blockhash"`
			Outputs       []struct {
				Script *string `json:"script"`
			} `json:"outputs"`
		} `json:"data"`
	}
	found, err := c.getJSON(ctx, "GET", c.chainSoURL+"/get_tx/BTC/"+id, nil, &res)
	if err != nil {
		return nil, err
	}
	if !found || res.Status == "fail" {
		return nil, ErrTxNotFound
	}

	var opReturn string
	for _, out := range res.Data.Outputs {
		if out.Script != nil {
			if op := opReturnData(*out.Script); op != "" {
				opReturn = op
				break
			}
		}
	}
	d := res.Data
	return makeTransaction(d.TxID, d.Confirmations, unixTime(d.Time), d.BlockHash, opReturn), nil
}

func (c *Client) blockcypherTransaction(ctx context.Context, id string) (*Transaction, error) {
	var res struct {
		Error         string `json:"error"`
		Hash          string `json:"hash"`
		Confirmations int    `json:"confirmations"`
		Confirmed     string `json:"confirmed"`
		BlockHash     string `json:"block_hash"`
		Outputs       []struct {
			DataHex string `json:"data_hex"`
		} `json:"outputs"`
	}
	found, err := c.getJSON(ctx, "GET", c.blockcypherURL+"/txs/"+id, nil, &res)
	if err != nil {
		return nil, err
	}
	if !found || res.Error != "" {
		return nil, ErrTxNotFound
	}

	var opReturn string
	for _, out := range res.Outputs {
		if out.DataHex != "" {
			opReturn = out.DataHex
			break
		}
	}

	var confirmedOn *time.Time
	if t, err := time.Parse(time.RFC3339, res.Confirmed); err == nil {
		confirmedOn = &t
	}
	return makeTransaction(res.Hash, res.Confirmations, confirmedOn, res.BlockHash, opReturn), nil
}

func makeTransaction(txID string, confirmations int, confirmedOn *time.Time, blockHash, opReturn string) *Transaction {
	return &Transaction{
		TxID:          txID,
		Confirmations: confirmations,
		ConfirmedOn:   confirmedOn,
		BlockHash:     blockHash,
		OpReturn:      opReturn,
	}
}

// opReturnData returns the data pushed after OP_RETURN in a script, or "".
func opReturnData(script string) string {
	if !strings.Contains(script, "OP_RETURN") {
		return ""
	}
	fields := strings.Split(script, " ")
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// unixTime is nil for a missing (zero) timestamp.
func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
