package crypto

import "sync"

// Secret owns plaintext key material (a mnemonic, a BIP-39 seed or a raw
// private key). The buffer is pinned in RAM where the OS allows it and is
// zeroed by Destroy. A destroyed Secret reads as empty.
type Secret struct {
	mu     sync.Mutex
	buf    []byte
	locked bool
}

// NewSecret copies b into a new Secret. The caller still owns b and should
// clear it.
func NewSecret(b []byte) *Secret {
	buf := make([]byte, len(b))
	copy(buf, b)

	s := &Secret{buf: buf}
	if len(buf) > 0 {
		// Best effort: mlock may fail under RLIMIT_MEMLOCK.
		s.locked = lockMemory(buf) == nil
	}
	return s
}

// Bytes returns the underlying buffer. It must not be retained past
// Destroy.
func (s *Secret) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// Len is the length of the secret in bytes.
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Destroy zeroes the secret and releases the memory lock. It is safe to
// call more than once.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.buf)
	if s.locked {
		_ = unlockMemory(s.buf)
		s.locked = false
	}
	s.buf = nil
}
