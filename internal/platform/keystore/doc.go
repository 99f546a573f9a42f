// Package keystore holds the wallet operations the sender delegates to: account address
// derivation, data-update signing and the matching verification used by the devnode.
//
// Signatures are secp256k1 ECDSA over the first 32 bytes of SHA-512 of the prefixed,
// base64-encoded payload, DER-encoded and hex-rendered, which is the format metagraph
// data-application L1 nodes accept in envelope proofs.
package keystore
