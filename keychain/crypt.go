// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keychain

import (
	"encoding/binary"

	"github.com/btcsuite/btcwallet/snacl"

	"github.com/covault/utxowallet/internal/zero"
)

// Encrypted private keys are stored as a uint16 length prefix, the
// marshalled snacl secret key parameters, and the secretbox ciphertext.

// EncryptPrv encrypts the extended private key string under the given
// passphrase.  The passphrase derives a scrypt secret key whose
// parameters travel with the ciphertext.
func EncryptPrv(prv string, passphrase []byte) ([]byte, error) {
	secretKey, err := snacl.NewSecretKey(
		&passphrase, snacl.DefaultN, snacl.DefaultR, snacl.DefaultP,
	)
	if err != nil {
		return nil, newError(ErrCrypto, "cannot derive secret key", err)
	}
	defer secretKey.Zero()

	plaintext := []byte(prv)
	defer zero.Bytes(plaintext)

	blob, err := secretKey.Encrypt(plaintext)
	if err != nil {
		return nil, newError(ErrCrypto, "cannot encrypt private key", err)
	}

	params := secretKey.Marshal()
	out := make([]byte, 2+len(params)+len(blob))
	binary.BigEndian.PutUint16(out, uint16(len(params)))
	copy(out[2:], params)
	copy(out[2+len(params):], blob)
	return out, nil
}

// DecryptPrv decrypts an encrypted extended private key with the given
// passphrase.  The returned string is sensitive; callers must not retain
// it beyond the signing call.
func DecryptPrv(encrypted, passphrase []byte) (string, error) {
	if len(encrypted) < 2 {
		return "", newError(ErrCrypto, "encrypted key too short", nil)
	}
	paramsLen := int(binary.BigEndian.Uint16(encrypted))
	if len(encrypted) < 2+paramsLen {
		return "", newError(ErrCrypto, "encrypted key truncated", nil)
	}

	var secretKey snacl.SecretKey
	if err := secretKey.Unmarshal(encrypted[2 : 2+paramsLen]); err != nil {
		return "", newError(ErrCrypto, "malformed secret key parameters", err)
	}
	if err := secretKey.DeriveKey(&passphrase); err != nil {
		return "", newError(ErrCrypto, "wrong wallet passphrase", err)
	}
	defer secretKey.Zero()

	plaintext, err := secretKey.Decrypt(encrypted[2+paramsLen:])
	if err != nil {
		return "", newError(ErrCrypto, "cannot decrypt private key", err)
	}
	prv := string(plaintext)
	zero.Bytes(plaintext)
	return prv, nil
}
