package usecase

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newOrderNumber formats ORD-<unix millis>-<8 hex chars>.
func newOrderNumber() string {
	return formatOrderNumber(time.Now(), uuid.New())
}

func formatOrderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("ORD-%d-%s", at.UnixMilli(), hex.EncodeToString(id[:4]))
}
