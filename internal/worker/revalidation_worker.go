package worker

import (
	"github.com/maximo-portal/version-portal/internal/service"
)

// StartRevalidationWorker registers page revalidation handlers.
func StartRevalidationWorker(revalidation *service.RevalidationService) {
	if revalidation == nil {
		return
	}
	revalidation.RegisterHandlers()
}
