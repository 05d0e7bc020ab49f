// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"

	// Stores
	KeyStoreCreated  = "store.created"
	KeyStoreUpdated  = "store.updated"
	KeyStoreDeleted  = "store.deleted"
	KeyStoreNotFound = "store.not_found"

	// Inventory
	KeyInventoryUpdated  = "inventory.updated"
	KeyInventoryNotFound = "inventory.not_found"

	// Settlements
	KeySettlementApplied     = "settlement.applied"
	KeySettlementDeleted     = "settlement.deleted"
	KeySettlementConfirmed   = "settlement.confirmed"
	KeySettlementNotFound    = "settlement.not_found"
	KeySettlementRowErrors   = "settlement.row_errors"
	KeySettlementParseFailed = "settlement.parse_failed"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
)
