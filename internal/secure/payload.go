package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrEmpty is returned when a payload would hold no data.
var ErrEmpty = errors.New("secure: empty payload")

// ErrDestroyed is returned by Reveal after Destroy.
var ErrDestroyed = errors.New("secure: payload destroyed")

// Payload is a secret held in an encrypted enclave.
type Payload struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// New seals data into an enclave. data is wiped.
func New(data []byte) (*Payload, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	size := len(data)
	return &Payload{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}, nil
}

// FromString seals a copy of s.
func FromString(s string) (*Payload, error) {
	return New([]byte(s))
}

// Len returns the size of the plaintext.
func (p *Payload) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.destroyed {
		return 0
	}
	return p.size
}

// Reveal decrypts the payload into a locked buffer, calls fn with its
// contents and wipes the buffer afterwards. fn must not retain the slice.
func (p *Payload) Reveal(fn func([]byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed {
		return ErrDestroyed
	}

	locked, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// String never prints the secret.
func (p *Payload) String() string {
	return "[REDACTED]"
}

// GoString never prints the secret.
func (p *Payload) GoString() string {
	return "[REDACTED]"
}

// Destroy drops the enclave. It is safe to call more than once.
func (p *Payload) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enclave = nil
	p.destroyed = true
}
