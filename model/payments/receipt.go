package payments

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// QueryID uniquely identifies a served query. The transport layer derives it
// from the signed receipt accompanying the query, so the appraisal written
// before dispatch and the receipt checked afterwards meet on the same key.
type QueryID common.Hash

func (q QueryID) String() string {
	return common.Hash(q).Hex()
}

// DeploymentID identifies the data deployment a query is served against.
type DeploymentID common.Hash

func (d DeploymentID) String() string {
	return common.Hash(d).Hex()
}

// Receipt is a payer's signed claim that it owes a fee for a single query.
// It is created by the payer and never mutated on this side.
type Receipt struct {
	Payer        common.Address `json:"payer"`
	AllocationID common.Address `json:"allocation_id"`
	TimestampNs  uint64         `json:"timestamp_ns"`
	Nonce        uint64         `json:"nonce"`
	Value        *big.Int       `json:"value"`
}

// SignedReceipt pairs a receipt with the payer's EIP-712 signature over it.
type SignedReceipt struct {
	Receipt   Receipt `json:"message"`
	Signature []byte  `json:"signature"`
}

// UniqueHash returns the identifier under which this receipt's query was
// appraised. It commits to both message and signature, so two receipts for
// the same query from different signers never collide.
func (sr *SignedReceipt) UniqueHash() QueryID {
	var buf []byte
	buf = append(buf, sr.Receipt.Payer.Bytes()...)
	buf = append(buf, sr.Receipt.AllocationID.Bytes()...)
	buf = append(buf, encodeUint64(sr.Receipt.TimestampNs)...)
	buf = append(buf, encodeUint64(sr.Receipt.Nonce)...)
	buf = append(buf, sr.Receipt.Value.Bytes()...)
	buf = append(buf, sr.Signature...)
	return QueryID(crypto.Keccak256Hash(buf))
}

// RecoverSigner returns the address that produced the receipt signature
// within the given signing domain.
func (sr *SignedReceipt) RecoverSigner(domain *Domain) (common.Address, error) {
	digest, err := domain.ReceiptDigest(&sr.Receipt)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not compute receipt digest: %w", err)
	}
	if len(sr.Signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sr.Signature))
	}
	pub, err := crypto.SigToPub(digest, sr.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Domain holds the EIP-712 signing-domain parameters receipts are verified
// against. All four fields come from configuration.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// ReceiptDigest computes the EIP-712 digest a payer signs for the receipt.
func (d *Domain) ReceiptDigest(receipt *Receipt) ([]byte, error) {
	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Receipt": []apitypes.Type{
				{Name: "payer", Type: "address"},
				{Name: "allocation_id", Type: "address"},
				{Name: "timestamp_ns", Type: "uint64"},
				{Name: "nonce", Type: "uint64"},
				{Name: "value", Type: "uint256"},
			},
		},
		PrimaryType: "Receipt",
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           (*math.HexOrDecimal256)(d.ChainID),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"payer":         receipt.Payer.Hex(),
			"allocation_id": receipt.AllocationID.Hex(),
			"timestamp_ns":  (*math.HexOrDecimal256)(new(big.Int).SetUint64(receipt.TimestampNs)),
			"nonce":         (*math.HexOrDecimal256)(new(big.Int).SetUint64(receipt.Nonce)),
			"value":         (*math.HexOrDecimal256)(receipt.Value),
		},
	}
	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return nil, fmt.Errorf("could not hash typed data: %w", err)
	}
	return digest, nil
}

// SignReceipt signs the receipt with the given key inside the domain. Used by
// payers and by test fixtures; the validation side only ever recovers.
func SignReceipt(domain *Domain, receipt *Receipt, key *ecdsa.PrivateKey) (*SignedReceipt, error) {
	digest, err := domain.ReceiptDigest(receipt)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("could not sign receipt digest: %w", err)
	}
	return &SignedReceipt{Receipt: *receipt, Signature: sig}, nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}
