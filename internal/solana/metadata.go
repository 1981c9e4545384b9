package solana

import "context"

// Resolve fetches symbol and name for a mint via the DAS getAsset method.
// Endpoints without DAS support return an RPC error; callers treat that as
// metadata being unavailable, not as a fatal condition.
func (c *HTTPClient) Resolve(ctx context.Context, mint string) (*TokenMetadata, error) {
	params := []interface{}{
		map[string]interface{}{"id": mint},
	}

	var result getAssetResult
	if err := c.call(ctx, "getAsset", params, &result); err != nil {
		return nil, err
	}

	md := &TokenMetadata{
		Mint:   mint,
		Symbol: result.Content.Metadata.Symbol,
		Name:   result.Content.Metadata.Name,
	}
	if md.Symbol == "" {
		md.Symbol = "UNK"
	}
	if md.Name == "" {
		md.Name = "Unknown Token"
	}
	return md, nil
}

// Compile-time interface check.
var _ MetadataResolver = (*HTTPClient)(nil)

type getAssetResult struct {
	Content struct {
		Metadata struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"metadata"`
	} `json:"content"`
}
