package keys

// Record is one row of the key relation.
type Record struct {
	PublicKey      string
	PrivateKey     string
	Nonce          string
	ValidatorIndex string
	FeeRecipient   *string
}

// PublicKeyWithRecipient is the part of a record that signer replicas need.
type PublicKeyWithRecipient struct {
	PublicKey    string
	FeeRecipient *string
}
