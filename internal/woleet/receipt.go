package woleet

import (
	"context"
	"fmt"
	"net/url"
)

// Receipt is a proof-of-existence receipt as returned by the API.
type Receipt map[string]any

// AnchorIDsPage is one page of anchor IDs matching a hash.
type AnchorIDsPage struct {
	Content          []string `json:"content"`
	TotalPages       int      `json:"totalPages"`
	TotalElements    int      `json:"totalElements"`
	Last             bool     `json:"last"`
	First            bool     `json:"first"`
	NumberOfElements int      `json:"numberOfElements"`
	Size             int      `json:"size"`
	Number           int      `json:"number"`
}

const defaultPageSize = 20

// GetReceipt fetches the receipt of anchorID.
func (c *Client) GetReceipt(ctx context.Context, anchorID string) (Receipt, error) {
	var r Receipt
	found, err := c.getJSON(ctx, "GET", c.BaseURL+"/receipt/"+url.PathEscape(anchorID), nil, &r)
	if err != nil {
		return nil, err
	}
	if !found || r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// GetAnchorIDs lists the anchors of hash. size <= 0 uses the default page
// size of 20. A missing page is returned as an empty page.
func (c *Client) GetAnchorIDs(ctx context.Context, hash string, size int) (*AnchorIDsPage, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	q := url.Values{}
	q.Set("size", fmt.Sprint(size))
	q.Set("hash", hash)

	page := &AnchorIDsPage{}
	if _, err := c.getJSON(ctx, "GET", c.BaseURL+"/anchorids?"+q.Encode(), nil, page); err != nil {
		return nil, err
	}
	return page, nil
}
