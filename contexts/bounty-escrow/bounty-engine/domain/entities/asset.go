package entities

import "strings"

type AssetKind string

const (
	AssetKindNative        AssetKind = "native"
	AssetKindFungibleToken AssetKind = "fungible_token"
)

// Asset is either the host's native value token or a fungible-token contract.
type Asset struct {
	Kind    AssetKind
	TokenID string
}

func NativeAsset() Asset {
	return Asset{Kind: AssetKindNative}
}

func TokenAsset(tokenID string) Asset {
	return Asset{Kind: AssetKindFungibleToken, TokenID: strings.TrimSpace(tokenID)}
}

// AssetFromToken maps the wire form (nil token means native) to an Asset.
func AssetFromToken(token *string) Asset {
	if token == nil || strings.TrimSpace(*token) == "" {
		return NativeAsset()
	}
	return TokenAsset(*token)
}

func (a Asset) IsNative() bool {
	return a.Kind != AssetKindFungibleToken
}

// Token is the wire form: nil for native, the contract id otherwise.
func (a Asset) Token() *string {
	if a.IsNative() {
		return nil
	}
	token := a.TokenID
	return &token
}

// Key identifies the asset in custody tables.
func (a Asset) Key() string {
	switch a.Kind {
	case AssetKindFungibleToken:
		return "ft:" + a.TokenID
	default:
		return string(AssetKindNative)
	}
}

func AssetFromKey(key string) Asset {
	if tokenID, ok := strings.CutPrefix(key, "ft:"); ok {
		return TokenAsset(tokenID)
	}
	return NativeAsset()
}
