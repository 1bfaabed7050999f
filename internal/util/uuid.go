package util

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		log.Fatalf("Failed to generate UUID: %v", err)
	}
	return newUUID.String()
}

// GenerateTransactionID produces the externally referenceable ledger
// identifier, e.g. TXN-1719741812345-4F2A1C.
func GenerateTransactionID() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(),
		strings.ToUpper(GenerateUUID()[:6]))
}
