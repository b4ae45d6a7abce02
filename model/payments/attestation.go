package payments

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AttestationSigner is the key handle authorized to sign on behalf of a
// single allocation. Keys are derived deterministically from the operator
// key and the allocation ID, so the signer set can be rebuilt from scratch
// whenever the allocation snapshot changes.
type AttestationSigner struct {
	allocationID common.Address
	key          *ecdsa.PrivateKey
	address      common.Address
}

// DeriveAttestationSigner derives the signer for the given allocation from
// the operator key.
func DeriveAttestationSigner(operator *ecdsa.PrivateKey, allocationID common.Address) (*AttestationSigner, error) {
	seed := crypto.Keccak256(crypto.FromECDSA(operator), allocationID.Bytes())
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		return nil, fmt.Errorf("could not derive key for allocation %s: %w", allocationID.Hex(), err)
	}
	return &AttestationSigner{
		allocationID: allocationID,
		key:          key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// AllocationID returns the allocation this signer is bound to.
func (s *AttestationSigner) AllocationID() common.Address {
	return s.allocationID
}

// Address returns the signer's on-chain address, the identity recovered
// receipt signatures are matched against.
func (s *AttestationSigner) Address() common.Address {
	return s.address
}

// Key exposes the private key for downstream response attestation.
func (s *AttestationSigner) Key() *ecdsa.PrivateKey {
	return s.key
}

// SignerSnapshot maps allocation IDs to their authorized attestation signer.
// Rebuilt whole whenever allocations or the dispute manager change.
type SignerSnapshot struct {
	signers        map[common.Address]*AttestationSigner
	disputeManager common.Address
}

func NewSignerSnapshot(signers []*AttestationSigner, disputeManager common.Address) *SignerSnapshot {
	byAllocation := make(map[common.Address]*AttestationSigner, len(signers))
	for _, signer := range signers {
		byAllocation[signer.AllocationID()] = signer
	}
	return &SignerSnapshot{signers: byAllocation, disputeManager: disputeManager}
}

// ByAllocation returns the authorized signer for the allocation, if any.
func (s *SignerSnapshot) ByAllocation(id common.Address) (*AttestationSigner, bool) {
	signer, ok := s.signers[id]
	return signer, ok
}

// DisputeManager returns the dispute-manager address the signer set was
// validated against.
func (s *SignerSnapshot) DisputeManager() common.Address {
	return s.disputeManager
}

func (s *SignerSnapshot) Size() int {
	return len(s.signers)
}
