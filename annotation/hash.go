package annotation

import (
	"crypto/sha256"
	"fmt"
)

// HashBytes returns the hex SHA256 of data, the key documents are stored by
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
