package keystore

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// KeyInfo is the decrypted material of one validator key.
type KeyInfo struct {
	PrivateKey   *uint256.Int
	FeeRecipient *common.Address
}

// KeySet maps public keys to their decrypted material and remembers the order
// in which keys were first added. Shard assignment depends on that order.
type KeySet struct {
	order []phase0.BLSPubKey
	items map[phase0.BLSPubKey]KeyInfo
}

func NewKeySet() *KeySet {
	return &KeySet{
		items: make(map[phase0.BLSPubKey]KeyInfo),
	}
}

// Set stores info for pubKey and reports whether an existing entry was
// replaced. A replaced entry keeps its original position.
func (s *KeySet) Set(pubKey phase0.BLSPubKey, info KeyInfo) (replaced bool) {
	if _, ok := s.items[pubKey]; ok {
		s.items[pubKey] = info
		return true
	}
	s.order = append(s.order, pubKey)
	s.items[pubKey] = info
	return false
}

func (s *KeySet) Get(pubKey phase0.BLSPubKey) (KeyInfo, bool) {
	info, ok := s.items[pubKey]
	return info, ok
}

func (s *KeySet) Len() int {
	return len(s.order)
}

// Keys returns the public keys in insertion order.
func (s *KeySet) Keys() []phase0.BLSPubKey {
	return append([]phase0.BLSPubKey(nil), s.order...)
}

// Range calls f for every key in insertion order until f returns false.
func (s *KeySet) Range(f func(position int, pubKey phase0.BLSPubKey, info KeyInfo) bool) {
	for i, pk := range s.order {
		if !f(i, pk, s.items[pk]) {
			return
		}
	}
}
