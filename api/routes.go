package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// InfoEndpoint returns the ledger identity and the commitment and
	// nullifier tree roots
	InfoEndpoint = "/info"
	// AdminEndpoint gets (GET) or reassigns (POST) the admin role
	AdminEndpoint = "/admin"
	// SupplyEndpoint returns the total token supply
	SupplyEndpoint = "/supply"
	// AddressURLParam is the URL parameter carrying an account address
	AddressURLParam = "address"
	// MinterEndpoint gets (GET) or sets (POST) an address' minter rights
	MinterEndpoint = "/minters/{" + AddressURLParam + "}"
	// PublicBalanceEndpoint returns an address' public balance
	PublicBalanceEndpoint = "/balances/public/{" + AddressURLParam + "}"
	// PrivateBalanceEndpoint returns an address' private balance
	PrivateBalanceEndpoint = "/balances/private/{" + AddressURLParam + "}"
	// MintPublicEndpoint mints into a public balance
	MintPublicEndpoint = "/mint/public"
	// MintPrivateEndpoint mints a pending-shield note
	MintPrivateEndpoint = "/mint/private"
	// TransferPublicEndpoint moves value between public balances
	TransferPublicEndpoint = "/transfers/public"
	// TransferPrivateEndpoint moves value between private balances
	TransferPrivateEndpoint = "/transfers/private"
	// BurnPublicEndpoint destroys value from a public balance
	BurnPublicEndpoint = "/burn/public"
	// BurnPrivateEndpoint destroys value from a private balance
	BurnPrivateEndpoint = "/burn/private"
	// ShieldEndpoint moves public value into a pending-shield note
	ShieldEndpoint = "/shield"
	// RedeemShieldEndpoint claims a pending-shield note with its secret
	RedeemShieldEndpoint = "/shield/redeem"
	// UnshieldEndpoint moves private value back to a public balance
	UnshieldEndpoint = "/unshield"
	// EscrowsEndpoint lists (GET) or creates (POST) escrow notes
	EscrowsEndpoint = "/escrows"
	// SettleEscrowEndpoint releases an escrow note to a recipient
	SettleEscrowEndpoint = "/escrows/settle"
	// BroadcastEscrowEndpoint fans an escrow note out to registered
	// encryption keys
	BroadcastEscrowEndpoint = "/escrows/broadcast"
	// EncryptionKeyEndpoint registers the encryption key note broadcasts
	// to an address are sealed with
	EncryptionKeyEndpoint = "/keys/{" + AddressURLParam + "}"
)
