// Package secure keeps the resolved auth payload encrypted in memory.
//
// Provider credentials pass through stackql-exec on their way into the AUTH
// variable. Between resolution and export they live in a memguard enclave:
// encrypted at rest (XSalsa20Poly1305), and only decrypted into a locked,
// guard-paged buffer for the duration of a Reveal callback.
//
//	payload, err := secure.FromString(raw)
//	if err != nil {
//		return err
//	}
//	defer payload.Destroy()
//
//	err = payload.Reveal(func(b []byte) error {
//		reporter.ExportVariable("AUTH", string(b))
//		return nil
//	})
//
// Memory locking needs RLIMIT_MEMLOCK on Linux. When it is unavailable the
// enclave still encrypts the payload. Call memguard.Purge on exit to wipe
// everything that is left.
package secure
