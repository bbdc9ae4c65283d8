package backup

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newID returns "<prefix>-<unix millis>-<9 lowercase alphanumerics>"
func newID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix)
}
