package proxyfab

import (
	"fmt"

	"go.chromium.org/sommelier/internal/sommerr"
)

func errUnknownGlobal(name uint32) error {
	return fmt.Errorf("proxyfab: bind requested for unknown global %d: %w", name, sommerr.ErrGuestProtocol)
}
