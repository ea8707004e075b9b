package handler

import (
	"majlis/internal/app/auth"
	"majlis/internal/app/chat"
	"majlis/internal/app/message"
	"majlis/internal/app/storage"
	"majlis/internal/configs"
	"majlis/internal/pkg/pow"
)

// AppDeps are the services the HTTP layer is wired to.
type AppDeps struct {
	Config  *configs.AppConfig
	Manager *chat.Manager
	Pow     *pow.PoWManager

	// Credentials and Messages are nil while the selected store is unconfigured.
	Credentials auth.Credentials
	Messages    message.Store

	// StorageService is nil when no S3 settings are present; attachments are then file-name
	// placeholders.
	StorageService storage.StorageService
}

// storeReady reports whether the stores can serve requests.
func (d *AppDeps) storeReady() bool {
	return d.Credentials != nil && d.Messages != nil
}
