package crypto

// ParseEncryptedBlob splits the wire form produced by EncryptedBlob.Bytes.
// Anything too short to hold a salt, nonce and GCM tag cannot authenticate
// and is reported as ErrAuthentication.
func ParseEncryptedBlob(data []byte) (EncryptedBlob, error) {
	if len(data) < SaltLen+NonceLen+tagLen {
		return EncryptedBlob{}, ErrAuthentication
	}

	// Copy so the blob does not alias storage-owned memory.
	buf := make([]byte, len(data))
	copy(buf, data)

	return EncryptedBlob{
		Salt:       buf[:SaltLen],
		IV:         buf[SaltLen : SaltLen+NonceLen],
		Ciphertext: buf[SaltLen+NonceLen:],
	}, nil
}

// Decrypt opens blob with a key regenerated from password and the stored
// salt. Caller owns the returned plaintext and must clear it after use.
// password must be []byte for security (caller should zero it after use)
func Decrypt(blob EncryptedBlob, password []byte) ([]byte, error) {
	if len(blob.Salt) != SaltLen || len(blob.IV) != NonceLen || len(blob.Ciphertext) < tagLen {
		return nil, ErrAuthentication
	}

	aesGCM, err := newGCM(password, blob.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, blob.IV, blob.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	return plaintext, nil
}

// DecryptSecret is Decrypt with the plaintext moved straight into a Secret.
func DecryptSecret(blob EncryptedBlob, password []byte) (*Secret, error) {
	plaintext, err := Decrypt(blob, password)
	if err != nil {
		return nil, err
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	return NewSecret(plaintext), nil
}
